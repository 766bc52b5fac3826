// Package testutil 수신 API 서버를 실제 포트로 띄우는 테스트를 위한 도우미를 제공합니다.
package testutil

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// FreePort 커널이 할당한 비어 있는 TCP 포트를 반환합니다.
// 리스너를 닫은 뒤 반환하므로 다른 프로세스가 먼저 가져갈 가능성은 남아 있다.
func FreePort(t testing.TB) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "빈 포트를 할당받지 못했습니다")
	defer l.Close()

	return l.Addr().(*net.TCPAddr).Port
}

// WaitForPort 포트가 연결을 받을 때까지 기다립니다. timeout 안에 열리지 않으면 테스트를 실패시킨다.
func WaitForPort(t testing.TB, port int, timeout time.Duration) {
	t.Helper()

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, timeout, 10*time.Millisecond, "서버가 %s에서 시작되지 않았습니다", addr)
}
