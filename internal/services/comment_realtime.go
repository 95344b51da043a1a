package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/AnshRaj112/blog-backend/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	CommentChannelPrefix  = "comments:article:"
	commentChannelPattern = CommentChannelPrefix + "*"

	CommentEventType = "comment"
)

// CommentEvent is the payload broadcast over Redis and WebSocket.
type CommentEvent struct {
	Type      string          `json:"type"`
	ArticleID int64           `json:"article_id"`
	Comment   *models.Comment `json:"comment,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// StreamConn is the minimal interface our WebSocket implementation must satisfy.
type StreamConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type streamSubscriber struct {
	articleID int64
	conn      StreamConn
	mu        sync.Mutex // serialises writes to conn
}

// CommentHub fans comment events from Redis out to the WebSocket
// connections of this process.
type CommentHub struct {
	rdb    *redis.Client
	logger *slog.Logger

	mu    sync.RWMutex
	conns map[uuid.UUID]*streamSubscriber

	started sync.Once
}

func NewCommentHub(rdb *redis.Client, logger *slog.Logger) *CommentHub {
	return &CommentHub{
		rdb:    rdb,
		logger: logger,
		conns:  make(map[uuid.UUID]*streamSubscriber),
	}
}

// Register starts delivering events of articleID to conn. The returned id
// is used to Unregister.
func (h *CommentHub) Register(articleID int64, conn StreamConn) uuid.UUID {
	id := uuid.New()
	h.mu.Lock()
	h.conns[id] = &streamSubscriber{articleID: articleID, conn: conn}
	h.mu.Unlock()
	return id
}

func (h *CommentHub) Unregister(id uuid.UUID) {
	h.mu.Lock()
	delete(h.conns, id)
	h.mu.Unlock()
}

// Subscribers returns the number of local connections watching articleID.
func (h *CommentHub) Subscribers(articleID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, s := range h.conns {
		if s.articleID == articleID {
			n++
		}
	}
	return n
}

// FanOut sends an event to all local connections watching its article.
func (h *CommentHub) FanOut(event CommentEvent) {
	h.mu.RLock()
	targets := make([]*streamSubscriber, 0, len(h.conns))
	for _, s := range h.conns {
		if s.articleID == event.ArticleID {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range targets {
		s.mu.Lock()
		if err := s.conn.WriteJSON(event); err != nil {
			h.logger.Warn("error writing comment event to websocket", "article_id", event.ArticleID, "err", err)
		}
		s.mu.Unlock()
	}
}

// Start launches the shared Redis listener once per hub.
func (h *CommentHub) Start(ctx context.Context) {
	h.started.Do(func() {
		go h.run(ctx)
	})
}

func (h *CommentHub) run(ctx context.Context) {
	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := h.rdb.PSubscribe(ctx, commentChannelPattern)
			defer pubsub.Close()

			h.logger.Info("comment subscriber started", "pattern", commentChannelPattern)

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					h.logger.Error("comment subscriber error", "err", err, "retry_in", backoff)
					select {
					case <-ctx.Done():
					case <-time.After(backoff):
					}
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event CommentEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					h.logger.Warn("failed to unmarshal comment event", "err", err)
					continue
				}

				h.FanOut(event)
			}
		}()
	}
}

// Publish broadcasts a new comment to every instance.
func (h *CommentHub) Publish(ctx context.Context, articleID int64, comment *models.Comment) error {
	event := CommentEvent{
		Type:      CommentEventType,
		ArticleID: articleID,
		Comment:   comment,
		Timestamp: time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	channel := CommentChannelPrefix + strconv.FormatInt(articleID, 10)
	return h.rdb.Publish(ctx, channel, data).Err()
}
