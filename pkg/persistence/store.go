package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Reservation is a booking row scoped to a tenant.
type Reservation struct {
	ID            int64
	TenantID      string
	CallID        string
	CustomerName  string
	CustomerPhone string
	Date          string
	Time          string
	Guests        int
	Status        string
	CreatedAt     time.Time
}

// Order is a takeout or delivery order recorded during a call.
type Order struct {
	ID            int64
	TenantID      string
	CallID        string
	CustomerName  string
	CustomerPhone string
	Items         string
	Notes         string
	Status        string
	CreatedAt     time.Time
}

// CallerMessage is a message left for the business by a caller.
type CallerMessage struct {
	ID          int64
	TenantID    string
	CallID      string
	CallerName  string
	CallerPhone string
	Body        string
	CreatedAt   time.Time
}

// Reservation statuses.
const (
	ReservationConfirmed = "confirmed"
	ReservationCancelled = "cancelled"
)

// CreateReservation inserts a new confirmed reservation and returns its ID.
func (s *Store) CreateReservation(ctx context.Context, r *Reservation) (int64, error) {
	if r.Guests <= 0 {
		r.Guests = 1
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reservations (tenant_id, call_id, customer_name, customer_phone, date, time, guests, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.TenantID, r.CallID, r.CustomerName, r.CustomerPhone, r.Date, r.Time, r.Guests, ReservationConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to create reservation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get reservation id: %w", err)
	}
	s.logger.Info("created reservation %d for tenant %s (%s %s, %d guests)",
		id, r.TenantID, r.Date, r.Time, r.Guests)
	return id, nil
}

// FindReservation locates the most recent confirmed reservation matching the
// given hints. Empty hints are ignored. Returns sql.ErrNoRows when nothing
// matches.
func (s *Store) FindReservation(ctx context.Context, tenantID, customerName, date string) (*Reservation, error) {
	query := `SELECT id, tenant_id, call_id, customer_name, customer_phone, date, time, guests, status, created_at
		FROM reservations WHERE tenant_id = ? AND status = ?`
	args := []any{tenantID, ReservationConfirmed}
	if customerName != "" {
		query += ` AND customer_name LIKE ?`
		args = append(args, "%"+strings.TrimSpace(customerName)+"%")
	}
	if date != "" {
		query += ` AND date = ?`
		args = append(args, date)
	}
	query += ` ORDER BY created_at DESC LIMIT 1`

	var r Reservation
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&r.ID, &r.TenantID, &r.CallID, &r.CustomerName, &r.CustomerPhone,
		&r.Date, &r.Time, &r.Guests, &r.Status, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CancelReservation marks a reservation cancelled.
func (s *Store) CancelReservation(ctx context.Context, tenantID string, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND tenant_id = ? AND status = ?`,
		ReservationCancelled, id, tenantID, ReservationConfirmed)
	if err != nil {
		return fmt.Errorf("failed to cancel reservation %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check cancellation of reservation %d: %w", id, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	s.logger.Info("cancelled reservation %d for tenant %s", id, tenantID)
	return nil
}

// ModifyReservation updates date, time or party size. Empty or zero fields
// keep their current value.
func (s *Store) ModifyReservation(ctx context.Context, tenantID string, id int64, date, timeOfDay string, guests int) error {
	sets := []string{"updated_at = CURRENT_TIMESTAMP"}
	args := []any{}
	if date != "" {
		sets = append(sets, "date = ?")
		args = append(args, date)
	}
	if timeOfDay != "" {
		sets = append(sets, "time = ?")
		args = append(args, timeOfDay)
	}
	if guests > 0 {
		sets = append(sets, "guests = ?")
		args = append(args, guests)
	}
	args = append(args, id, tenantID, ReservationConfirmed)

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE reservations SET %s WHERE id = ? AND tenant_id = ? AND status = ?`,
			strings.Join(sets, ", ")),
		args...)
	if err != nil {
		return fmt.Errorf("failed to modify reservation %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check modification of reservation %d: %w", id, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	s.logger.Info("modified reservation %d for tenant %s", id, tenantID)
	return nil
}

// CreateOrder records a new order and returns its ID.
func (s *Store) CreateOrder(ctx context.Context, o *Order) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO orders (tenant_id, call_id, customer_name, customer_phone, items, notes, status)
		 VALUES (?, ?, ?, ?, ?, ?, 'received')`,
		o.TenantID, o.CallID, o.CustomerName, o.CustomerPhone, o.Items, o.Notes)
	if err != nil {
		return 0, fmt.Errorf("failed to create order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get order id: %w", err)
	}
	s.logger.Info("created order %d for tenant %s", id, o.TenantID)
	return id, nil
}

// SaveCallerMessage stores a message left by a caller.
func (s *Store) SaveCallerMessage(ctx context.Context, m *CallerMessage) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO caller_messages (tenant_id, call_id, caller_name, caller_phone, body)
		 VALUES (?, ?, ?, ?, ?)`,
		m.TenantID, m.CallID, m.CallerName, m.CallerPhone, m.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to save caller message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get message id: %w", err)
	}
	s.logger.Info("saved caller message %d for tenant %s", id, m.TenantID)
	return id, nil
}
