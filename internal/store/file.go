package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/darkkaiser/push-worker/pkg/concurrency"
	applog "github.com/darkkaiser/push-worker/pkg/log"
)

// tempFilePattern 원자적 쓰기에 사용하는 임시 파일 이름 패턴
// 비정상 종료로 남은 파일을 정리할 때도 이 패턴으로 찾는다.
const tempFilePattern = "config-*.tmp"

// staleTempFileAge 이 시간보다 오래된 임시 파일은 이전 실행의 잔존 파일로 보고 삭제한다.
const staleTempFileAge = time.Hour

// fileRecord 키 하나가 저장되는 파일의 내용
type fileRecord struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileStore 키마다 하나의 JSON 파일로 값을 보관하는 저장소입니다.
//
// 쓰기는 같은 디렉토리의 임시 파일에 기록한 뒤 이름을 바꾸는 방식으로 수행되므로,
// 쓰기 도중 프로세스가 종료되어도 기존 값이 손상되지 않습니다.
type FileStore struct {
	baseDir string

	// 같은 파일에 대한 동시 접근만 직렬화한다.
	locks *concurrency.KeyedMutex

	closed atomic.Bool
}

var _ Store = (*FileStore)(nil)

// NewFileStore 디렉토리를 준비하고 파일 저장소를 생성합니다.
// 이전 실행에서 남은 임시 파일은 백그라운드에서 정리됩니다.
func NewFileStore(dir string) (*FileStore, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, NewErrAbsPathConversionFailed(err)
	}

	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, NewErrDirectoryAccessFailed(err, absDir)
	}

	s := &FileStore{
		baseDir: absDir,
		locks:   concurrency.NewKeyedMutex(),
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				applog.WithComponentAndFields(component, applog.Fields{
					"base_dir": s.baseDir,
					"panic":    r,
				}).Error("임시 파일 정리 중단: 백그라운드 작업 패닉 발생")
			}
		}()

		s.cleanupStaleTempFiles(time.Now().Add(-staleTempFileAge))
	}()

	return s, nil
}

// Dir 저장소 디렉토리의 절대 경로를 반환합니다.
func (s *FileStore) Dir() string {
	return s.baseDir
}

func (s *FileStore) cleanupStaleTempFiles(threshold time.Time) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"dir":   s.baseDir,
			"error": err,
		}).Warn("임시 파일 정리 중단: 디렉토리 조회 실패")

		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if matched, _ := filepath.Match(tempFilePattern, name); !matched {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.ModTime().After(threshold) {
			continue
		}

		fullPath := filepath.Join(s.baseDir, name)
		if err := os.Remove(fullPath); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"file":  fullPath,
				"error": err,
			}).Warn("임시 파일 삭제 실패")
			continue
		}

		applog.WithComponentAndFields(component, applog.Fields{
			"file": fullPath,
		}).Info("임시 파일 삭제 완료: 이전 실행 잔존 파일 정리")
	}
}

func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.closed.Load() {
		return "", false, ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	filename, err := s.resolveSafePath(key)
	if err != nil {
		return "", false, err
	}

	unlock, err := s.locks.Lock(ctx, strings.ToLower(filename))
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(filename)
	unlock()

	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, NewErrReadFailed(err, key)
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", false, NewErrJSONUnmarshalFailed(err)
	}

	return rec.Value, true, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	filename, err := s.resolveSafePath(key)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(fileRecord{Key: key, Value: value, UpdatedAt: time.Now()}, "", "\t")
	if err != nil {
		return NewErrJSONMarshalFailed(err)
	}

	unlock, err := s.locks.Lock(ctx, strings.ToLower(filename))
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.writeAtomic(filename, data); err != nil {
		return NewErrWriteFailed(err, key)
	}

	return nil
}

func (s *FileStore) Close() error {
	s.closed.Store(true)
	return nil
}

// resolveSafePath 키에 해당하는 파일의 절대 경로를 만들고, 저장소 디렉토리를 벗어나지 않는지 검증합니다.
func (s *FileStore) resolveSafePath(key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	filename := generateFilename(key)
	cleanPath := filepath.Clean(filepath.Join(s.baseDir, filename))

	rel, err := filepath.Rel(s.baseDir, cleanPath)
	if err != nil {
		return "", NewErrPathResolutionFailed(err)
	}

	if strings.HasPrefix(rel, "..") {
		applog.WithComponentAndFields(component, applog.Fields{
			"key":      key,
			"filename": filename,
			"base_dir": s.baseDir,
			"rel_path": rel,
		}).Error("파일 경로 생성 차단: 경로 이탈 시도 감지")

		return "", ErrPathTraversalDetected
	}

	return cleanPath, nil
}

// writeAtomic 임시 파일에 기록하고 fsync한 뒤 대상 파일로 이름을 바꿉니다.
func (s *FileStore) writeAtomic(filename string, data []byte) error {
	dir := filepath.Dir(filename)

	tmpFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	// 이름 변경에 성공하면 tmpPath가 더 이상 없으므로 Remove는 조용히 실패한다.
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return err
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return err
	}

	if err := tmpFile.Close(); err != nil {
		return err
	}

	if err := renameWithRetry(tmpPath, filename); err != nil {
		return err
	}

	// 디렉토리 엔트리 변경까지 디스크에 반영한다. Windows 등에서는 실패할 수 있으므로 무시한다.
	if dirFile, err := os.Open(dir); err == nil {
		_ = dirFile.Sync()
		dirFile.Close()
	}

	return nil
}

// renameWithRetry 백신이나 인덱서가 파일을 잠시 잡고 있는 경우를 고려하여 이름 변경을 몇 차례 재시도합니다.
func renameWithRetry(oldPath, newPath string) error {
	const maxRetries = 5
	const retryDelay = 10 * time.Millisecond

	var lastErr error
	for range maxRetries {
		if lastErr = os.Rename(oldPath, newPath); lastErr == nil {
			return nil
		}
		time.Sleep(retryDelay)
	}

	return lastErr
}
