package store

import (
	"fmt"

	apperrors "github.com/darkkaiser/push-worker/internal/pkg/errors"
)

var (
	// ErrPathTraversalDetected 키로부터 만든 파일 경로가 저장소 디렉토리를 벗어날 때 반환됩니다.
	ErrPathTraversalDetected = apperrors.New(apperrors.Internal, "보안 정책 위반: 허용되지 않은 경로 접근 시도로 인해 요청이 차단되었습니다")

	ErrEmptyKey = apperrors.New(apperrors.InvalidInput, "설정 키가 비어 있습니다")

	ErrStoreClosed = apperrors.New(apperrors.Unavailable, "설정 저장소가 이미 닫혔습니다")
)

func NewErrUnsupportedDriver(driver string) error {
	return apperrors.New(apperrors.Configuration, fmt.Sprintf("지원하지 않는 설정 저장소 드라이버입니다: '%s'", driver))
}

func NewErrPathResolutionFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "보안 검증 실패: 파일 경로를 해석할 수 없습니다")
}

func NewErrAbsPathConversionFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "설정 저장소 초기화 실패: 절대 경로 변환 불가")
}

func NewErrDirectoryAccessFailed(err error, dir string) error {
	return apperrors.Wrap(err, apperrors.Internal, fmt.Sprintf("설정 저장소 초기화 실패: 디렉토리 접근 불가 (%s)", dir))
}

func NewErrDatabaseOpenFailed(err error, path string) error {
	return apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("설정 저장소 초기화 실패: 데이터베이스를 열 수 없습니다 (%s)", path))
}

func NewErrJSONMarshalFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "데이터 처리 실패: 설정 값 직렬화(JSON Marshal) 중 오류가 발생했습니다")
}

func NewErrJSONUnmarshalFailed(err error) error {
	return apperrors.Wrap(err, apperrors.ParsingFailed, "데이터 처리 실패: 저장된 설정 값 역직렬화(JSON Unmarshal) 중 오류가 발생했습니다")
}

func NewErrReadFailed(err error, key string) error {
	return apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("설정 값 조회 실패: '%s'", key))
}

func NewErrWriteFailed(err error, key string) error {
	return apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("설정 값 저장 실패: '%s'", key))
}
