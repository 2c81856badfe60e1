package service

import (
	"context"
	"sort"
	"strings"

	"truvamate/internal/authz"
	"truvamate/internal/domain"
	"truvamate/internal/models"
	"truvamate/pkg/pagination"

	"go.uber.org/zap"
)

// exportMaxRows bounds one export so a runaway ledger cannot exhaust memory.
const exportMaxRows = 50000

// SortCommission orders a page by commission; any other sort keeps the
// store's newest-first order.
const SortCommission = "commission"

// ListQuery filters the admin referral listing. Status and Paid are applied
// by the store; Search and Sort apply to the fetched page.
type ListQuery struct {
	Status    string
	Paid      *bool
	Search    string
	Sort      string
	Limit     int
	PageToken string
}

// ReferralEntry is a referral joined with its referrer's profile.
type ReferralEntry struct {
	models.Referral
	ReferrerName  string `json:"referrer_name"`
	ReferrerEmail string `json:"referrer_email"`
}

type ReferralList struct {
	Items         []ReferralEntry `json:"items"`
	Summary       ListSummary     `json:"summary"`
	NextPageToken string          `json:"next_page_token,omitempty"`
}

// ListAll returns one page of the ledger for administrators. Storage
// failures yield an empty page.
func (s *ReferralService) ListAll(ctx context.Context, q ListQuery) (*ReferralList, error) {
	if err := s.authorize(ctx, authz.ObjectReferral, authz.ActionReferralList); err != nil {
		return nil, err
	}
	sq, err := storeQuery(q)
	if err != nil {
		return nil, err
	}
	page, err := s.store.ListReferrals(ctx, sq)
	if err != nil {
		s.log.Error("list referrals failed", zap.Error(err))
		return &ReferralList{Items: []ReferralEntry{}}, nil
	}

	entries := applySearch(s.enrich(ctx, page.Items), q.Search)
	sortEntries(entries, q.Sort)
	out := &ReferralList{Items: entries, Summary: summarize(entries)}
	if page.Next != nil {
		token, err := pagination.EncodeCursor(*page.Next)
		if err != nil {
			return nil, err
		}
		out.NextPageToken = token
	}
	return out, nil
}

// ExportReferrals walks every page matching q for a spreadsheet export.
// Unlike ListAll it reports storage failures.
func (s *ReferralService) ExportReferrals(ctx context.Context, q ListQuery) ([]ReferralEntry, error) {
	if err := s.authorize(ctx, authz.ObjectReferral, authz.ActionReferralExport); err != nil {
		return nil, err
	}
	q.Limit = domain.MaxListLimit
	sq, err := storeQuery(q)
	if err != nil {
		return nil, err
	}

	var refs []models.Referral
	for {
		page, err := s.store.ListReferrals(ctx, sq)
		if err != nil {
			return nil, err
		}
		refs = append(refs, page.Items...)
		if page.Next == nil {
			break
		}
		if len(refs) >= exportMaxRows {
			s.log.Warn("export truncated", zap.Int("rows", len(refs)))
			break
		}
		sq.After = page.Next
	}

	entries := applySearch(s.enrich(ctx, refs), q.Search)
	sortEntries(entries, q.Sort)
	return entries, nil
}

func storeQuery(q ListQuery) (models.ReferralQuery, error) {
	sq := models.ReferralQuery{
		Status: q.Status,
		Paid:   q.Paid,
		Limit:  pagination.ClampLimit(q.Limit, domain.MaxListLimit),
	}
	if q.PageToken != "" {
		c, err := pagination.DecodeCursor(q.PageToken)
		if err != nil {
			return sq, domain.ErrBadPageToken
		}
		sq.After = c
	}
	return sq, nil
}

// enrich attaches referrer names and emails. Lookup failures leave them blank.
func (s *ReferralService) enrich(ctx context.Context, refs []models.Referral) []ReferralEntry {
	entries := make([]ReferralEntry, len(refs))
	if len(refs) == 0 {
		return entries
	}
	ids := make([]string, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		if _, ok := seen[r.ReferrerID]; ok {
			continue
		}
		seen[r.ReferrerID] = struct{}{}
		ids = append(ids, r.ReferrerID)
	}
	users, err := s.store.GetUsers(ctx, ids)
	if err != nil {
		s.log.Warn("referrer lookup failed", zap.Error(err))
	}
	for i, r := range refs {
		entries[i].Referral = r
		if u, ok := users[r.ReferrerID]; ok {
			entries[i].ReferrerName = u.DisplayName()
			entries[i].ReferrerEmail = u.Email
		}
	}
	return entries
}

func applySearch(entries []ReferralEntry, q string) []ReferralEntry {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return entries
	}
	out := entries[:0]
	for _, e := range entries {
		if containsFold(q, e.ReferrerName, e.ReferrerEmail, e.ReferredUserName, e.ReferredUserEmail, e.ReferrerCode) {
			out = append(out, e)
		}
	}
	return out
}

func containsFold(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// sortEntries orders by commission descending on request. The store already
// returns newest first.
func sortEntries(entries []ReferralEntry, by string) {
	if by != SortCommission {
		return
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CommissionCents > entries[j].CommissionCents
	})
}
