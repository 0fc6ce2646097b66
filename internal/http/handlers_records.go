package http

import (
	"net/http"
	"strconv"

	"tally/internal/apperr"
	"tally/internal/auth"
	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/query"
	"tally/internal/records"
	"tally/internal/report"
	"tally/internal/store"
)

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	q := r.URL.Query()
	recs, err := s.records.List(r.Context(), userID, store.RecordFilter{
		Kind:     core.Kind(q.Get("type")),
		Category: q.Get("category"),
		Search:   q.Get("search"),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondList(w, recs, len(recs))
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	var in records.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.records.Create(r.Context(), userID, in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.summaryCache.Invalidate(userID)
	respondData(w, http.StatusCreated, "record created", created)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	recordID, err := recordIDFromPath(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var in records.UpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	updated, err := s.records.Update(r.Context(), userID, recordID, in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.summaryCache.Invalidate(userID)
	respondData(w, http.StatusOK, "record updated", updated)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	recordID, err := recordIDFromPath(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	deleted, err := s.records.Delete(r.Context(), userID, recordID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.summaryCache.Invalidate(userID)
	respondData(w, http.StatusOK, "record deleted", deleted)
}

// handleSummary aggregates the caller's records after applying the
// optional filter parameters. Results are cached per user until the
// next mutation.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserID(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	f, err := s.filterFromQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	// Quick ranges resolve against today, so the evaluation date is part
	// of the key; an entry cached before midnight cannot serve the next
	// day's request.
	cacheKey := core.DateOf(s.now()).String() + "?" + r.URL.RawQuery
	if cached, ok := s.summaryCache.Get(userID, cacheKey); ok {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Summary cache hit", log.FieldUserID, userID)
		respondData(w, http.StatusOK, "", cached)
		return
	}

	recs, err := s.records.List(r.Context(), userID, store.RecordFilter{})
	if err != nil {
		respondError(w, r, err)
		return
	}

	summary := report.Summarize(query.Apply(recs, f))
	s.summaryCache.Set(userID, cacheKey, summary)
	respondData(w, http.StatusOK, "", summary)
}

// filterFromQuery builds the in-memory filter from the summary query
// parameters. Explicit startDate/endDate override a quickRange tag.
func (s *Server) filterFromQuery(r *http.Request) (query.Filter, error) {
	q := r.URL.Query()
	f := query.Default()

	if v := q.Get("type"); v != "" {
		if v != query.All && !core.Kind(v).Valid() {
			return query.Filter{}, apperr.Validationf("unknown type %q", v)
		}
		f.Kind = v
	}
	if v := q.Get("category"); v != "" {
		f.Category = v
	}
	if v := q.Get("search"); v != "" {
		f.Search = v
	}

	if v := q.Get("quickRange"); v != "" {
		tag := query.QuickRange(v)
		if !tag.Valid() {
			return query.Filter{}, apperr.Validationf("unknown quick range %q", v)
		}
		f = f.WithQuick(tag, core.DateOf(s.now()), s.weekStart)
	}

	start, err := core.ParseDate(q.Get("startDate"))
	if err != nil {
		return query.Filter{}, apperr.Validationf("invalid startDate %q", q.Get("startDate"))
	}
	end, err := core.ParseDate(q.Get("endDate"))
	if err != nil {
		return query.Filter{}, apperr.Validationf("invalid endDate %q", q.Get("endDate"))
	}
	if !start.IsZero() || !end.IsZero() {
		f = f.WithRange(query.DateRange{Start: start, End: end})
	}

	return f, nil
}

func recordIDFromPath(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.NotFound("record not found")
	}
	return id, nil
}
