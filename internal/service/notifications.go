package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"railbite/internal/auth"
	"railbite/models"
	"railbite/repository"
)

// NotificationService records in-app notifications and serves each recipient's inbox.
type NotificationService struct {
	store *repository.Store
	log   *zap.Logger
}

func NewNotificationService(store *repository.Store, log *zap.Logger) *NotificationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &NotificationService{store: store, log: log.Named("notifications")}
}

// Message is the payload of a notification independent of its addressing.
type Message struct {
	Type    models.NotificationType
	Title   string
	Body    string
	OrderID *int64
}

// Create records n and returns it, or nil when n is invalid or the write fails.
// It never returns an error: notifications accompany other operations and must
// not abort them.
func (s *NotificationService) Create(ctx context.Context, n *models.Notification) *models.Notification {
	if err := validateAddressing(n); err != nil {
		s.log.Warn("notification dropped", zap.Error(err))
		return nil
	}
	out, err := s.store.Notifications.Create(ctx, n)
	if err != nil {
		s.log.Error("create notification",
			zap.Error(err),
			zap.String("title", n.Title),
			zap.String("target_kind", string(n.TargetKind)),
		)
		return nil
	}
	return out
}

// ToUser sends m to a single account.
func (s *NotificationService) ToUser(ctx context.Context, userID int64, m Message) *models.Notification {
	return s.Create(ctx, m.notification(models.TargetUser, &userID, ""))
}

// ToRole sends m to every account with the role.
func (s *NotificationService) ToRole(ctx context.Context, role models.Role, m Message) *models.Notification {
	return s.Create(ctx, m.notification(models.TargetRole, nil, role))
}

// ToAll broadcasts m to every account.
func (s *NotificationService) ToAll(ctx context.Context, m Message) *models.Notification {
	return s.Create(ctx, m.notification(models.TargetAll, nil, ""))
}

func (m Message) notification(kind models.TargetKind, userID *int64, role models.Role) *models.Notification {
	return &models.Notification{
		Type:         m.Type,
		Title:        m.Title,
		Message:      m.Body,
		TargetKind:   kind,
		TargetUserID: userID,
		TargetRole:   role,
		OrderID:      m.OrderID,
	}
}

// ListMine returns the caller's 50 most recent notifications with per-recipient read state.
func (s *NotificationService) ListMine(ctx context.Context, actor auth.Principal) ([]models.Notification, error) {
	return s.store.Notifications.ListForRecipient(ctx, actor.UserID, actor.Role, 50)
}

// UnreadCount counts the caller's unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, actor auth.Principal) (int, error) {
	return s.store.Notifications.UnreadCount(ctx, actor.UserID, actor.Role)
}

// MarkRead adds the caller to the notification's read-by set.
func (s *NotificationService) MarkRead(ctx context.Context, actor auth.Principal, id int64) error {
	ok, err := s.store.Notifications.IsVisibleTo(ctx, id, actor.UserID, actor.Role)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return s.store.Notifications.MarkRead(ctx, id, actor.UserID)
}

// MarkAllRead marks every notification visible to the caller as read and
// returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor auth.Principal) (int64, error) {
	return s.store.Notifications.MarkAllRead(ctx, actor.UserID, actor.Role)
}

// BroadcastInput is an admin-authored notification.
type BroadcastInput struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	TargetKind string `json:"target_kind"`
	UserID     *int64 `json:"user_id"`
	Role       string `json:"role"`
	OrderID    *int64 `json:"order_id"`
}

// Broadcast lets an admin send a notification. Unlike Create, failures are reported.
func (s *NotificationService) Broadcast(ctx context.Context, actor auth.Principal, in BroadcastInput) (*models.Notification, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	typ := models.NotificationInfo
	if in.Type != "" {
		t, ok := models.ParseNotificationType(in.Type)
		if !ok {
			return nil, Validation("invalid notification type %q", in.Type)
		}
		typ = t
	}
	kind := models.TargetKind(strings.ToLower(strings.TrimSpace(in.TargetKind)))
	if kind == "" {
		kind = models.TargetAll
	}
	n := &models.Notification{
		Type:       typ,
		Title:      strings.TrimSpace(in.Title),
		Message:    strings.TrimSpace(in.Message),
		TargetKind: kind,
		OrderID:    in.OrderID,
	}
	switch kind {
	case models.TargetUser:
		n.TargetUserID = in.UserID
	case models.TargetRole:
		n.TargetRole = models.Role(in.Role)
	}
	if err := validateAddressing(n); err != nil {
		return nil, err
	}
	if kind == models.TargetUser {
		u, err := s.store.Users.GetByID(ctx, *in.UserID)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, ErrUserNotFound
		}
	}
	return s.store.Notifications.Create(ctx, n)
}

// Delete removes a notification. Admins may delete any; other users only those addressed to them alone.
func (s *NotificationService) Delete(ctx context.Context, actor auth.Principal, id int64) error {
	n, err := s.store.Notifications.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return ErrNotificationNotFound
	}
	if !actor.IsAdmin() {
		if n.TargetKind != models.TargetUser || n.TargetUserID == nil || *n.TargetUserID != actor.UserID {
			return ErrForbidden
		}
	}
	return s.store.Notifications.Delete(ctx, id)
}

func validateAddressing(n *models.Notification) error {
	if n == nil {
		return Validation("notification is nil")
	}
	if _, ok := models.ParseNotificationType(string(n.Type)); !ok {
		return Validation("invalid notification type %q", n.Type)
	}
	if n.Title == "" || n.Message == "" {
		return Validation("title and message are required")
	}
	switch n.TargetKind {
	case models.TargetUser:
		if n.TargetUserID == nil || n.TargetRole != "" {
			return Validation("a user notification needs exactly one target user")
		}
	case models.TargetRole:
		if _, ok := models.ParseRole(string(n.TargetRole)); !ok || n.TargetUserID != nil {
			return Validation("a role notification needs exactly one valid target role")
		}
	case models.TargetAll:
		if n.TargetUserID != nil || n.TargetRole != "" {
			return Validation("a broadcast notification cannot name a user or role")
		}
	default:
		return Validation("invalid notification target %q", n.TargetKind)
	}
	return nil
}

// outbox collects notifications during a transaction so they are sent only after commit.
type outbox struct {
	userMsgs []userMsg
	roleMsgs []roleMsg
}

type userMsg struct {
	userID int64
	msg    Message
}

type roleMsg struct {
	role models.Role
	msg  Message
}

func (o *outbox) user(userID int64, m Message) {
	o.userMsgs = append(o.userMsgs, userMsg{userID: userID, msg: m})
}

func (o *outbox) role(role models.Role, m Message) {
	o.roleMsgs = append(o.roleMsgs, roleMsg{role: role, msg: m})
}

func (o *outbox) flush(ctx context.Context, n *NotificationService) {
	if n == nil {
		return
	}
	for _, u := range o.userMsgs {
		n.ToUser(ctx, u.userID, u.msg)
	}
	for _, r := range o.roleMsgs {
		n.ToRole(ctx, r.role, r.msg)
	}
}
