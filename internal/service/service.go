// Package service 애플리케이션을 구성하는 장기 실행 서비스의 공통 계약을 정의합니다.
package service

import (
	"context"
	"sync"
)

// Service 시작 후 serviceStopCtx가 취소될 때까지 동작하는 백그라운드 서비스입니다.
//
// 호출자는 Start 전에 serviceStopWG.Add(1)을 호출하고, 서비스는 완전히 종료되면 Done을 호출한다.
// Start는 초기화 결과만 반환하고 즉시 반환되어야 한다.
type Service interface {
	Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error
}
