// Package version содержит информацию о сборке, заполняемую через -ldflags:
//
//	go build -ldflags "-X .../internal/version.version=v1.2.3 \
//	  -X .../internal/version.commit=$(git rev-parse --short HEAD) \
//	  -X .../internal/version.date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

import "fmt"

// Service — имя сервиса в логах и health-ответах.
const Service = "auction-service"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// BuildInfo агрегирует параметры сборки.
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info возвращает параметры текущей сборки.
func Info() BuildInfo {
	return BuildInfo{
		Service: Service,
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// String возвращает однострочное представление для логов и /healthz.
func String() string {
	return fmt.Sprintf("%s version=%s commit=%s date=%s", Service, version, commit, date)
}
