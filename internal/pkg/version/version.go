// Package version 빌드 시점에 주입된 메타데이터와 실행 환경 정보를 제공합니다.
//
// WorkerVersion은 설치(install) 시 워커 버전 마커(WORKER_SDK_VERSION)로 저장되고,
// Info 전체는 /version 엔드포인트로 노출됩니다.
package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/darkkaiser/push-worker/pkg/strutil"
)

const unknown = "unknown"

// -ldflags "-X github.com/darkkaiser/push-worker/internal/pkg/version.appVersion=..." 로 주입된다.
var (
	appVersion    = ""
	gitCommitHash = ""
	gitTreeState  = ""
	buildDate     = ""
	buildNumber   = ""
)

var readBuildInfo = debug.ReadBuildInfo

// Info 애플리케이션의 빌드 정보입니다.
type Info struct {
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	BuildDate   string `json:"build_date"`
	BuildNumber string `json:"build_number"`
	GoVersion   string `json:"go_version"`
	OS          string `json:"os"`
	Arch        string `json:"arch"`
	DirtyBuild  bool   `json:"dirty_build"`
}

var injected = sync.OnceValue(func() Info {
	return enrich(Info{
		Version:     strings.TrimSpace(appVersion),
		Commit:      strings.TrimSpace(gitCommitHash),
		BuildDate:   strings.TrimSpace(buildDate),
		BuildNumber: strings.TrimSpace(buildNumber),
		DirtyBuild:  strings.EqualFold(strings.TrimSpace(gitTreeState), "dirty"),
	})
})

// Get 애플리케이션의 빌드 정보를 반환합니다.
func Get() Info {
	return injected()
}

// enrich 비어 있는 필드를 실행 환경과 debug.BuildInfo의 VCS 정보로 채웁니다. 주입된 값은 덮어쓰지 않는다.
func enrich(bi Info) Info {
	bi.GoVersion = strutil.FirstNonEmpty(bi.GoVersion, runtime.Version())
	bi.OS = strutil.FirstNonEmpty(bi.OS, runtime.GOOS)
	bi.Arch = strutil.FirstNonEmpty(bi.Arch, runtime.GOARCH)

	if val, ok := readBuildInfo(); ok {
		vcs := make(map[string]string, len(val.Settings))
		for _, setting := range val.Settings {
			vcs[setting.Key] = setting.Value
		}

		bi.Commit = strutil.FirstNonEmpty(bi.Commit, vcs["vcs.revision"])
		bi.BuildDate = strutil.FirstNonEmpty(bi.BuildDate, vcs["vcs.time"])
		bi.DirtyBuild = bi.DirtyBuild || vcs["vcs.modified"] == "true"

		if v := val.Main.Version; v != "(devel)" {
			bi.Version = strutil.FirstNonEmpty(bi.Version, v)
		}
	}

	bi.Version = strutil.FirstNonEmpty(bi.Version, unknown)
	bi.Commit = strutil.FirstNonEmpty(bi.Commit, unknown)

	return bi
}

// WorkerVersion 워커 버전 마커로 저장할 값. 앞의 "v"를 떼고 빌드 메타데이터(+...)는 제외한다.
func (i Info) WorkerVersion() string {
	v := strings.TrimPrefix(i.Version, "v")
	if idx := strings.IndexByte(v, '+'); idx != -1 {
		v = v[:idx]
	}
	return strutil.FirstNonEmpty(v, unknown)
}

func (i Info) String() string {
	if i.Version == "" {
		return unknown
	}

	var sb strings.Builder
	sb.WriteString(i.Version)
	if i.DirtyBuild {
		sb.WriteString("+dirty")
	}

	sep := " ("
	detail := func(key, value string) {
		if value == "" || value == unknown {
			return
		}
		sb.WriteString(sep)
		sb.WriteString(key)
		sb.WriteString(": ")
		sb.WriteString(value)
		sep = ", "
	}

	commit := i.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	detail("commit", commit)
	detail("build", i.BuildNumber)
	detail("date", i.BuildDate)
	detail("go_version", i.GoVersion)

	if sep == ", " {
		sb.WriteString(")")
	}
	return sb.String()
}
