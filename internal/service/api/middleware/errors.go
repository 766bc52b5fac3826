package middleware

import (
	"fmt"

	apperrors "github.com/darkkaiser/push-worker/internal/pkg/errors"
	"github.com/darkkaiser/push-worker/internal/service/api/constants"
	"github.com/darkkaiser/push-worker/internal/service/api/httputil"
)

var (
	// ErrAppKeyRequired 인증 키가 요청에 없을 때 반환됩니다.
	ErrAppKeyRequired = httputil.NewBadRequestError(constants.ErrMsgAppKeyRequired)

	// ErrRateLimitExceeded 허용된 요청 빈도를 초과했을 때 반환됩니다.
	ErrRateLimitExceeded = httputil.NewTooManyRequestsError(constants.ErrMsgTooManyRequests)

	// ErrUnsupportedMediaType 요청 본문의 Content-Type을 지원하지 않을 때 반환됩니다.
	ErrUnsupportedMediaType = httputil.NewUnsupportedMediaTypeError(constants.ErrMsgUnsupportedMediaType)
)

// newErrPanicRecovered 복구된 패닉 값을 Internal 에러로 변환합니다.
func newErrPanicRecovered(r any) error {
	if err, ok := r.(error); ok {
		return apperrors.Wrap(err, apperrors.Internal, "요청 처리 중 패닉이 발생했습니다")
	}
	return apperrors.New(apperrors.Internal, fmt.Sprintf("요청 처리 중 패닉이 발생했습니다: %v", r))
}
