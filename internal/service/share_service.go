package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/packlane/packlane/internal/filestore"
	"github.com/packlane/packlane/internal/model"
	appErr "github.com/packlane/packlane/internal/pkg/errors"
	"github.com/packlane/packlane/internal/pkg/timeutil"
	"github.com/packlane/packlane/internal/repo"
)

// Internal reason codes for public access denials. They are logged but
// never surfaced: the caller sees the same not-found signal whether the
// token never existed, was revoked, or its list is gone.
const (
	denyReasonUnknownToken = "unknown_token"
	denyReasonRevoked      = "token_revoked"
	denyReasonListGone     = "list_gone"
)

type ShareService struct {
	lists      *repo.ListRepo
	categories *repo.CategoryRepo
	items      *repo.ItemRepo
	tokens     *repo.ShareTokenRepo
	store      filestore.Store
	cache      *expirable.LRU[string, *PublicSnapshot]
}

// NewShareService builds the token lifecycle and public projection service.
// cacheSize <= 0 or cacheTTL <= 0 disables snapshot caching.
func NewShareService(lists *repo.ListRepo, categories *repo.CategoryRepo, items *repo.ItemRepo, tokens *repo.ShareTokenRepo, store filestore.Store, cacheSize int, cacheTTL time.Duration) *ShareService {
	var cache *expirable.LRU[string, *PublicSnapshot]
	if cacheSize > 0 && cacheTTL > 0 {
		cache = expirable.NewLRU[string, *PublicSnapshot](cacheSize, nil, cacheTTL)
	}
	return &ShareService{
		lists:      lists,
		categories: categories,
		items:      items,
		tokens:     tokens,
		store:      store,
		cache:      cache,
	}
}

type PublicList struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Region      string `json:"region"`
	Currency    string `json:"currency"`
}

type PublicCategory struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

type PublicItem struct {
	ID           string `json:"id"`
	CategoryID   string `json:"category_id"`
	Name         string `json:"name"`
	Brand        string `json:"brand"`
	WeightGrams  int    `json:"weight_grams"`
	PriceCents   int64  `json:"price_cents"`
	Link         string `json:"link"`
	Image        string `json:"image"`
	AffiliateURL string `json:"affiliate_url"`
	Worn         int    `json:"worn"`
	Consumable   int    `json:"consumable"`
	Quantity     int    `json:"quantity"`
	Position     int    `json:"position"`
}

type SnapshotTotals struct {
	WeightGrams           int   `json:"weight_grams"`
	WornWeightGrams       int   `json:"worn_weight_grams"`
	ConsumableWeightGrams int   `json:"consumable_weight_grams"`
	PriceCents            int64 `json:"price_cents"`
	ItemCount             int   `json:"item_count"`
}

type PublicSnapshot struct {
	List       PublicList       `json:"list"`
	Categories []PublicCategory `json:"categories"`
	Items      []PublicItem     `json:"items"`
	Totals     SnapshotTotals   `json:"totals"`
}

// EnsureActiveShare returns the active token for the caller's list,
// minting one if none exists. A concurrent ensure for the same list is
// resolved by the storage-level uniqueness constraint: the losing insert
// re-reads the winner instead of failing.
func (s *ShareService) EnsureActiveShare(ctx context.Context, userID, listID string) (*model.ShareToken, error) {
	if _, err := s.lists.GetByOwner(ctx, userID, listID); err != nil {
		return nil, err
	}
	token, err := s.tokens.GetActiveByList(ctx, listID)
	if err == nil {
		return token, nil
	}
	if !appErr.IsNotFound(err) {
		return nil, err
	}
	now := timeutil.NowUnix()
	token = &model.ShareToken{
		ID:     newID(),
		ListID: listID,
		UserID: userID,
		Token:  newToken(),
		State:  repo.ShareTokenStateActive,
		Ctime:  now,
		Mtime:  now,
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		if appErr.IsConflict(err) {
			return s.tokens.GetActiveByList(ctx, listID)
		}
		return nil, err
	}
	return token, nil
}

// GetActiveShare returns the active token for the caller's list, or nil
// when the list is not currently shared.
func (s *ShareService) GetActiveShare(ctx context.Context, userID, listID string) (*model.ShareToken, error) {
	if _, err := s.lists.GetByOwner(ctx, userID, listID); err != nil {
		return nil, err
	}
	token, err := s.tokens.GetActiveByList(ctx, listID)
	if appErr.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return token, nil
}

// RevokeShare revokes the active token, if any. Idempotent.
func (s *ShareService) RevokeShare(ctx context.Context, userID, listID string) error {
	if _, err := s.lists.GetByOwner(ctx, userID, listID); err != nil {
		return err
	}
	token, err := s.tokens.GetActiveByList(ctx, listID)
	if appErr.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.tokens.RevokeByList(ctx, listID, timeutil.NowUnix()); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Remove(token.Token)
	}
	return nil
}

// ResolveActive returns the token record iff tokenValue maps to an active
// token. All failure modes collapse into ErrNotFound; the distinction is
// only logged.
func (s *ShareService) ResolveActive(ctx context.Context, tokenValue string) (*model.ShareToken, error) {
	token, err := s.tokens.GetByToken(ctx, tokenValue)
	if appErr.IsNotFound(err) {
		s.logDenied(ctx, denyReasonUnknownToken)
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if token.State != repo.ShareTokenStateActive {
		s.logDenied(ctx, denyReasonRevoked)
		return nil, appErr.ErrNotFound
	}
	return token, nil
}

// GetPublicSnapshot assembles the read-only public view for an active
// token: the list, its categories in position order, its items in position
// order, and weight/price totals. Only public-safe fields are projected.
func (s *ShareService) GetPublicSnapshot(ctx context.Context, tokenValue string) (*PublicSnapshot, error) {
	if s.cache != nil {
		if snapshot, ok := s.cache.Get(tokenValue); ok {
			return snapshot, nil
		}
	}
	token, err := s.ResolveActive(ctx, tokenValue)
	if err != nil {
		return nil, err
	}
	list, err := s.lists.GetByID(ctx, token.ListID)
	if appErr.IsNotFound(err) {
		// Token resolution succeeding does not guarantee the list
		// still exists. Same external signal as a bad token.
		s.logDenied(ctx, denyReasonListGone)
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.ListByList(ctx, list.ID)
	if err != nil {
		return nil, err
	}
	items, err := s.items.ListByList(ctx, list.ID)
	if err != nil {
		return nil, err
	}
	snapshot := s.project(list, categories, items)
	if s.cache != nil {
		s.cache.Add(tokenValue, snapshot)
	}
	return snapshot, nil
}

// BuildPublicCSV renders the snapshot as a CSV attachment.
func (s *ShareService) BuildPublicCSV(ctx context.Context, tokenValue string) ([]byte, string, error) {
	snapshot, err := s.GetPublicSnapshot(ctx, tokenValue)
	if err != nil {
		return nil, "", err
	}
	categoryTitles := make(map[string]string, len(snapshot.Categories))
	for _, category := range snapshot.Categories {
		categoryTitles[category.ID] = category.Title
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"category", "name", "brand", "weight_grams", "price", "quantity", "worn", "consumable", "link"})
	for _, item := range snapshot.Items {
		_ = w.Write([]string{
			categoryTitles[item.CategoryID],
			item.Name,
			item.Brand,
			strconv.Itoa(item.WeightGrams),
			formatPrice(item.PriceCents),
			strconv.Itoa(item.Quantity),
			strconv.Itoa(item.Worn),
			strconv.Itoa(item.Consumable),
			item.Link,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("%s-%s.csv", sanitizeFilename(snapshot.List.Title), time.Now().Format("20060102"))
	return buf.Bytes(), filename, nil
}

func (s *ShareService) project(list *model.List, categories []model.Category, items []model.Item) *PublicSnapshot {
	snapshot := &PublicSnapshot{
		List: PublicList{
			ID:          list.ID,
			Title:       list.Title,
			Description: list.Description,
			Region:      list.Region,
			Currency:    list.Currency,
		},
		Categories: make([]PublicCategory, 0, len(categories)),
		Items:      make([]PublicItem, 0, len(items)),
	}
	for _, category := range categories {
		snapshot.Categories = append(snapshot.Categories, PublicCategory{
			ID:       category.ID,
			Title:    category.Title,
			Position: category.Position,
		})
	}
	for _, item := range items {
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		snapshot.Items = append(snapshot.Items, PublicItem{
			ID:           item.ID,
			CategoryID:   item.CategoryID,
			Name:         item.Name,
			Brand:        item.Brand,
			WeightGrams:  item.WeightGrams,
			PriceCents:   item.PriceCents,
			Link:         item.Link,
			Image:        s.imageURL(item.Image),
			AffiliateURL: item.AffiliateURL,
			Worn:         item.Worn,
			Consumable:   item.Consumable,
			Quantity:     item.Quantity,
			Position:     item.Position,
		})
		weight := item.WeightGrams * quantity
		snapshot.Totals.WeightGrams += weight
		if item.Worn == 1 {
			snapshot.Totals.WornWeightGrams += weight
		}
		if item.Consumable == 1 {
			snapshot.Totals.ConsumableWeightGrams += weight
		}
		snapshot.Totals.PriceCents += item.PriceCents * int64(quantity)
		snapshot.Totals.ItemCount++
	}
	return snapshot
}

func (s *ShareService) imageURL(key string) string {
	if key == "" || s.store == nil {
		return ""
	}
	return s.store.URL(key, "")
}

func (s *ShareService) logDenied(ctx context.Context, reason string) {
	logutil.GetLogger(ctx).Debug("public share access denied", zap.String("reason", reason))
}

func formatPrice(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func sanitizeFilename(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		case r == ' ':
			out = append(out, '-')
		}
	}
	if len(out) == 0 {
		return "list"
	}
	return string(out)
}
