package log

import "github.com/sirupsen/logrus"

// silentFormatter 표준 출력이 io.Discard일 때 불필요한 포맷팅 비용을 없애기 위한 포맷터입니다.
// 실제 출력은 hook이 자체 TextFormatter로 수행합니다.
type silentFormatter struct{}

func (f *silentFormatter) Format(_ *logrus.Entry) ([]byte, error) {
	return nil, nil
}
