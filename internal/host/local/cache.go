package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/darkkaiser/push-worker/internal/host"
	apperrors "github.com/darkkaiser/push-worker/internal/pkg/errors"
)

// DirCacheStorage 캐시 하나를 기준 디렉토리 아래의 하위 디렉토리 하나로 관리하는 캐시 저장소입니다.
type DirCacheStorage struct {
	baseDir string
}

var _ host.CacheStorage = (*DirCacheStorage)(nil)

// NewDirCacheStorage 기준 디렉토리를 준비하고 캐시 저장소를 생성합니다.
func NewDirCacheStorage(dir string) (*DirCacheStorage, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "캐시 저장소 초기화 실패: 절대 경로 변환 불가")
	}

	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, apperrors.Wrap(err, apperrors.HostFailure, fmt.Sprintf("캐시 저장소 초기화 실패: 디렉토리 접근 불가 (%s)", absDir))
	}

	return &DirCacheStorage{baseDir: absDir}, nil
}

func (s *DirCacheStorage) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.HostFailure, "캐시 목록 조회에 실패했습니다")
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Open 이름에 해당하는 캐시 디렉토리를 만들고 경로를 반환합니다. 이미 있으면 그대로 사용한다.
func (s *DirCacheStorage) Open(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir, err := s.resolve(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", apperrors.Wrap(err, apperrors.HostFailure, fmt.Sprintf("캐시 생성에 실패했습니다: '%s'", name))
	}
	return dir, nil
}

func (s *DirCacheStorage) Delete(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	dir, err := s.resolve(name)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, apperrors.Wrap(err, apperrors.HostFailure, fmt.Sprintf("캐시 조회에 실패했습니다: '%s'", name))
	}

	if err := os.RemoveAll(dir); err != nil {
		return false, apperrors.Wrap(err, apperrors.HostFailure, fmt.Sprintf("캐시 삭제에 실패했습니다: '%s'", name))
	}
	return true, nil
}

// resolve 캐시 이름을 기준 디렉토리 바로 아래의 경로로 변환합니다. 경로 구분자나 상위 디렉토리 참조는 거부한다.
func (s *DirCacheStorage) resolve(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", apperrors.New(apperrors.InvalidInput, fmt.Sprintf("캐시 이름이 올바르지 않습니다: '%s'", name))
	}

	return filepath.Join(s.baseDir, name), nil
}
