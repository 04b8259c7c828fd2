package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"healthsync/internal/filter"
	"healthsync/internal/models"
	"healthsync/internal/service"
)

// 视图模式
const (
	ViewCards    = "cards"
	ViewTable    = "table"
	ViewTimeline = "timeline"
)

// patientQuery ?search=&status=&view=
func patientQuery(req *http.Request) (filter.PatientFilter, string, error) {
	q := req.URL.Query()
	f := filter.PatientFilter{
		Search: strings.TrimSpace(q.Get("search")),
		Status: strings.TrimSpace(q.Get("status")),
	}
	switch strings.ToLower(f.Status) {
	case "", "all", "online", "offline":
	default:
		return f, "", fmt.Errorf("%w: unknown status %q", service.ErrInvalidInput, f.Status)
	}

	view := strings.ToLower(strings.TrimSpace(q.Get("view")))
	switch view {
	case "":
		view = ViewCards
	case ViewCards, ViewTable:
	default:
		return f, "", fmt.Errorf("%w: unknown view %q", service.ErrInvalidInput, view)
	}
	return f, view, nil
}

// alertQuery ?severity=&resolved=&patient=&search=&sort=&view=
func alertQuery(req *http.Request) (filter.AlertFilter, filter.SortKey, string, error) {
	q := req.URL.Query()
	var f filter.AlertFilter

	if sev := strings.TrimSpace(q.Get("severity")); sev != "" && !strings.EqualFold(sev, "all") {
		level, ok := models.ParseSeverity(sev)
		if !ok {
			return f, "", "", fmt.Errorf("%w: unknown severity %q", service.ErrInvalidInput, sev)
		}
		f.Severity = level
	}

	resolved, err := filter.ParseResolvedState(q.Get("resolved"))
	if err != nil {
		return f, "", "", fmt.Errorf("%w: %w", service.ErrInvalidInput, err)
	}
	f.Resolved = resolved

	if p := q.Get("patient"); p != "" && p != "all" {
		f.PatientName = p
	}
	f.Search = strings.TrimSpace(q.Get("search"))

	key, err := filter.ParseSortKey(q.Get("sort"))
	if err != nil {
		return f, "", "", fmt.Errorf("%w: %w", service.ErrInvalidInput, err)
	}

	view := strings.ToLower(strings.TrimSpace(q.Get("view")))
	switch view {
	case "":
		view = ViewTimeline
	case ViewTimeline, ViewCards, ViewTable:
	default:
		return f, "", "", fmt.Errorf("%w: unknown view %q", service.ErrInvalidInput, view)
	}
	return f, key, view, nil
}
