// internal/store/context_store.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"stayflow-workers/internal/common/database"
	"stayflow-workers/internal/common/errors"
	"stayflow-workers/internal/common/logger"
	"stayflow-workers/internal/common/metrics"
	"stayflow-workers/internal/models"
)

const (
	contextCachePrefix = "thread-context:"
	historyLimit       = 20
)

// ContextStore assembles per-thread conversation context from Postgres with a
// Redis read-through cache in front. Cache failures degrade to a direct
// database read; they never fail a load.
type ContextStore struct {
	db     *database.PostgresClient
	cache  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewContextStore(db *database.PostgresClient, cache *database.RedisClient, ttl time.Duration, log logger.Logger) *ContextStore {
	return &ContextStore{
		db:     db,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "context-store"}),
	}
}

const threadContextQuery = `
SELECT
	r.id, r.guest_name, r.check_in, r.check_out, r.nights, r.guest_count, r.total_price, r.status,
	l.id, l.title, l.bedrooms, l.bathrooms, l.max_guests, l.nightly_price, l.cleaning_fee, l.pets_allowed, l.description,
	p.id, p.name, p.address, p.description,
	o.id, o.name
FROM message_threads t
LEFT JOIN reservations r ON r.id = t.reservation_id
LEFT JOIN lots l ON l.id = t.lot_id
LEFT JOIN properties p ON p.id = l.property_id
LEFT JOIN organizations o ON o.id = p.organization_id
WHERE t.id = $1`

const threadMessagesQuery = `
SELECT role, content, created_at
FROM messages
WHERE thread_id = $1
ORDER BY created_at DESC
LIMIT $2`

const insertNotificationQuery = `
INSERT INTO escalation_notifications (id, thread_id, status, email_sent, sms_sent, sent_at)
VALUES ($1, $2, $3, $4, $5, $6)`

const hostContactQuery = `
SELECT h.name, h.email, h.phone
FROM message_threads t
JOIN lots l ON l.id = t.lot_id
JOIN properties p ON p.id = l.property_id
JOIN hosts h ON h.id = p.host_id
WHERE t.id = $1`

// LoadThreadContext returns everything known about a thread. A thread with no
// linked reservation, lot or property is still a valid result with those
// fields nil.
func (s *ContextStore) LoadThreadContext(ctx context.Context, threadID string) (*models.ContextData, error) {
	if cached := s.cacheGet(ctx, threadID); cached != nil {
		return cached, nil
	}

	data, err := s.loadFromDatabase(ctx, threadID)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, threadID, data)
	return data, nil
}

func (s *ContextStore) loadFromDatabase(ctx context.Context, threadID string) (*models.ContextData, error) {
	row := s.db.QueryRow(ctx, threadContextQuery, threadID)

	var (
		resID, resGuest, resStatus           sql.NullString
		resCheckIn, resCheckOut              sql.NullTime
		resNights, resGuests                 sql.NullInt64
		resTotal                             sql.NullFloat64
		lotID, lotTitle, lotDesc             sql.NullString
		lotBedrooms, lotBathrooms, lotGuests sql.NullInt64
		lotPrice, lotCleaning                sql.NullFloat64
		lotPets                              sql.NullBool
		propID, propName, propAddr, propDesc sql.NullString
		orgID, orgName                       sql.NullString
	)

	err := row.Scan(
		&resID, &resGuest, &resCheckIn, &resCheckOut, &resNights, &resGuests, &resTotal, &resStatus,
		&lotID, &lotTitle, &lotBedrooms, &lotBathrooms, &lotGuests, &lotPrice, &lotCleaning, &lotPets, &lotDesc,
		&propID, &propName, &propAddr, &propDesc,
		&orgID, &orgName,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewThreadNotFoundError(threadID)
	}
	if err != nil {
		return nil, errors.NewContextLoadFailedError(threadID, err)
	}

	data := &models.ContextData{ThreadID: threadID}

	if resID.Valid {
		data.Reservation = &models.ReservationContext{
			ID:         resID.String,
			GuestName:  resGuest.String,
			CheckIn:    resCheckIn.Time,
			CheckOut:   resCheckOut.Time,
			Nights:     int(resNights.Int64),
			GuestCount: int(resGuests.Int64),
			TotalPrice: resTotal.Float64,
			Status:     resStatus.String,
		}
	}
	if lotID.Valid {
		data.Lot = &models.LotContext{
			ID:           lotID.String,
			Title:        lotTitle.String,
			Bedrooms:     int(lotBedrooms.Int64),
			Bathrooms:    int(lotBathrooms.Int64),
			MaxGuests:    int(lotGuests.Int64),
			NightlyPrice: lotPrice.Float64,
			CleaningFee:  lotCleaning.Float64,
			PetsAllowed:  lotPets.Bool,
			Description:  lotDesc.String,
		}
	}
	if propID.Valid {
		data.Property = &models.PropertyContext{
			ID:          propID.String,
			Name:        propName.String,
			Address:     propAddr.String,
			Description: propDesc.String,
		}
	}
	if orgID.Valid {
		data.Organization = &models.OrganizationContext{
			ID:   orgID.String,
			Name: orgName.String,
		}
	}

	history, err := s.loadHistory(ctx, threadID)
	if err != nil {
		return nil, err
	}
	data.ConversationHistory = history

	return data, nil
}

// loadHistory returns the newest turns of a thread in chronological order.
func (s *ContextStore) loadHistory(ctx context.Context, threadID string) ([]models.ConversationMessage, error) {
	rows, err := s.db.Query(ctx, threadMessagesQuery, threadID, historyLimit)
	if err != nil {
		return nil, errors.NewContextLoadFailedError(threadID, err)
	}
	defer rows.Close()

	var newestFirst []models.ConversationMessage
	for rows.Next() {
		var msg models.ConversationMessage
		if err := rows.Scan(&msg.Role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, errors.NewContextLoadFailedError(threadID, err)
		}
		newestFirst = append(newestFirst, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewContextLoadFailedError(threadID, err)
	}

	// The query fetches newest-first so the LIMIT keeps the most recent
	// turns; reverse into the oldest-first order the prompt expects.
	history := make([]models.ConversationMessage, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		history = append(history, newestFirst[i])
	}
	return history, nil
}

// LoadHostContact resolves the notification targets for the host responsible
// for a thread's property.
func (s *ContextStore) LoadHostContact(ctx context.Context, threadID string) (*models.HostContact, error) {
	row := s.db.QueryRow(ctx, hostContactQuery, threadID)

	var contact models.HostContact
	var phone sql.NullString
	err := row.Scan(&contact.Name, &contact.Email, &phone)
	if err == sql.ErrNoRows {
		return nil, errors.NewHostContactNotFoundError(threadID)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("host_contact", err)
	}
	contact.Phone = phone.String

	return &contact, nil
}

// RecordNotification writes the audit row for an escalation notification
// attempt.
func (s *ContextStore) RecordNotification(ctx context.Context, rec *models.NotificationRecord) error {
	_, err := s.db.Exec(ctx, insertNotificationQuery,
		rec.ID, rec.ThreadID, rec.Status, rec.EmailSent, rec.SMSSent, rec.SentAt)
	if err != nil {
		return errors.NewQueryExecutionFailedError("escalation_notifications", err)
	}
	return nil
}

func (s *ContextStore) cacheGet(ctx context.Context, threadID string) *models.ContextData {
	if s.cache == nil {
		return nil
	}

	raw, err := s.cache.Get(ctx, contextCachePrefix+threadID)
	if err != nil {
		metrics.ContextCacheMisses.Inc()
		return nil
	}

	var data models.ContextData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		metrics.ContextCacheMisses.Inc()
		s.logger.Warn("discarding corrupt cache entry", map[string]interface{}{
			"threadId": threadID,
			"error":    err.Error(),
		})
		return nil
	}

	metrics.ContextCacheHits.Inc()
	return &data
}

func (s *ContextStore) cacheSet(ctx context.Context, threadID string, data *models.ContextData) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, contextCachePrefix+threadID, string(raw), s.ttl); err != nil {
		s.logger.Warn("context cache write failed", map[string]interface{}{
			"threadId": threadID,
			"error":    err.Error(),
		})
	}
}

// InvalidateThread drops a thread's cached context, used after new messages
// are appended so the next load sees them.
func (s *ContextStore) InvalidateThread(ctx context.Context, threadID string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, contextCachePrefix+threadID)
}
