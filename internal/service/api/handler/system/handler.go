// Package system 인증이 필요 없는 시스템 엔드포인트(헬스체크, 버전 정보) 핸들러를 제공합니다.
package system

import (
	"net/http"
	"time"

	"github.com/darkkaiser/push-worker/internal/pkg/version"
	"github.com/darkkaiser/push-worker/internal/service/api/constants"
	applog "github.com/darkkaiser/push-worker/pkg/log"
	"github.com/labstack/echo/v4"
)

// Dependency 헬스체크 대상 구성 요소입니다.
// Check는 현재 상태 문자열을 반환하고, 정상 상태가 아니면 에러를 함께 반환한다.
type Dependency struct {
	Name  string
	Check func() (state string, err error)
}

// DependencyStatus 구성 요소별 헬스체크 결과
type DependencyStatus struct {
	Status  string `json:"status"`
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}

// HealthResponse 헬스체크 응답
type HealthResponse struct {
	Status string `json:"status"`

	// Uptime 서버 가동 시간(초)
	Uptime       int64                       `json:"uptime"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// Handler 시스템 엔드포인트 핸들러
type Handler struct {
	buildInfo    version.Info
	dependencies []Dependency

	serverStartTime time.Time
}

// NewHandler Handler를 생성합니다.
func NewHandler(buildInfo version.Info, dependencies ...Dependency) *Handler {
	return &Handler{
		buildInfo:       buildInfo,
		dependencies:    dependencies,
		serverStartTime: time.Now(),
	}
}

// HealthCheckHandler 구성 요소의 상태를 모아 반환합니다. 하나라도 비정상이면 전체 상태는 unhealthy다.
// 모니터링에서 상태 코드만 보고도 판단할 수 있도록 unhealthy면 503으로 응답한다.
func (h *Handler) HealthCheckHandler(c echo.Context) error {
	applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
		"endpoint":  "/health",
		"remote_ip": c.RealIP(),
	}).Debug("헬스체크 요청")

	status := constants.HealthStatusHealthy
	deps := make(map[string]DependencyStatus, len(h.dependencies))

	for _, dep := range h.dependencies {
		state, err := dep.Check()
		if err != nil {
			status = constants.HealthStatusUnhealthy
			deps[dep.Name] = DependencyStatus{Status: constants.HealthStatusUnhealthy, State: state, Message: err.Error()}
			continue
		}
		deps[dep.Name] = DependencyStatus{Status: constants.HealthStatusHealthy, State: state}
	}

	code := http.StatusOK
	if status != constants.HealthStatusHealthy {
		code = http.StatusServiceUnavailable
	}

	return c.JSON(code, HealthResponse{
		Status:       status,
		Uptime:       int64(time.Since(h.serverStartTime).Seconds()),
		Dependencies: deps,
	})
}

// VersionHandler 빌드 정보를 반환합니다.
func (h *Handler) VersionHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, h.buildInfo)
}
