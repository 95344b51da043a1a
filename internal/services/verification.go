package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/AnshRaj112/blog-backend/internal/metrics"
	"github.com/AnshRaj112/blog-backend/internal/models"
	"github.com/AnshRaj112/blog-backend/pkg/utils"
	"github.com/redis/go-redis/v9"
)

const (
	// ImageCodeKeyPrefix maps a client token to the expected captcha text
	ImageCodeKeyPrefix = "img:"
	// SMSCodeKeyPrefix maps a mobile number to its current SMS code
	SMSCodeKeyPrefix = "sms:"
	// DefaultVerifyCodeTTL applies to both image and SMS codes
	DefaultVerifyCodeTTL = 5 * time.Minute

	smsLogTimeout = 3 * time.Second
)

// VerificationService runs the image captcha -> SMS code -> check flow on Redis.
type VerificationService struct {
	rdb        redis.Cmdable
	captcha    CaptchaGenerator
	sms        SMSSender
	smsLog     SMSLogStore // nil disables the audit log
	templateID string
	ttl        time.Duration
	logger     *slog.Logger
}

type VerificationOptions struct {
	TemplateID string
	TTL        time.Duration
	SMSLog     SMSLogStore
}

func NewVerificationService(rdb redis.Cmdable, captcha CaptchaGenerator, sms SMSSender, opts VerificationOptions, logger *slog.Logger) *VerificationService {
	if opts.TTL <= 0 {
		opts.TTL = DefaultVerifyCodeTTL
	}
	return &VerificationService{
		rdb:        rdb,
		captcha:    captcha,
		sms:        sms,
		smsLog:     opts.SMSLog,
		templateID: opts.TemplateID,
		ttl:        opts.TTL,
		logger:     logger,
	}
}

// IssueImageCode renders a fresh captcha and binds its text to token,
// replacing any captcha previously issued for the same token.
func (s *VerificationService) IssueImageCode(ctx context.Context, token string) ([]byte, string, error) {
	if token == "" {
		return nil, "", ErrMissingParam
	}

	text, img, contentType, err := s.captcha.Generate()
	if err != nil {
		return nil, "", err
	}

	if err := s.rdb.Set(ctx, ImageCodeKeyPrefix+token, text, s.ttl).Err(); err != nil {
		return nil, "", fmt.Errorf("store image code: %w", err)
	}

	metrics.CaptchaIssued.Inc()
	s.logger.Debug("image code issued", "token", token)
	return img, contentType, nil
}

// SendSMSCode consumes the captcha bound to token and, when text matches,
// issues a new SMS code for mobile. The captcha is gone after this call
// whatever the outcome.
func (s *VerificationService) SendSMSCode(ctx context.Context, token, text, mobile string) error {
	if token == "" || text == "" || mobile == "" {
		return ErrMissingParam
	}
	if !utils.ValidMobile(mobile) {
		return ErrInvalidMobile
	}

	expected, err := s.rdb.GetDel(ctx, ImageCodeKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		metrics.RecordVerificationFailure("captcha", "expired")
		return ErrCaptchaExpired
	}
	if err != nil {
		return fmt.Errorf("consume image code: %w", err)
	}
	if !strings.EqualFold(expected, text) {
		metrics.RecordVerificationFailure("captcha", "mismatch")
		return ErrCaptchaMismatch
	}

	code, err := generateSMSCode()
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, SMSCodeKeyPrefix+mobile, code, s.ttl).Err(); err != nil {
		return fmt.Errorf("store sms code: %w", err)
	}
	s.logger.Debug("sms code generated", "mobile", mobile, "code", code)

	minutes := strconv.Itoa(int(s.ttl / time.Minute))
	messageID, sendErr := s.sms.SendTemplate(ctx, mobile, s.templateID, []string{code, minutes})

	entry := models.SMSLog{
		Mobile:     mobile,
		TemplateID: s.templateID,
		Status:     models.SMSStatusSent,
		MessageID:  messageID,
	}
	if sendErr != nil {
		entry.Status = models.SMSStatusFailed
		entry.Error = sendErr.Error()
	}
	s.recordDispatch(ctx, entry)

	if sendErr != nil {
		metrics.RecordSMS("error")
		s.logger.Error("sms dispatch failed", "mobile", mobile, "err", sendErr)
		return fmt.Errorf("%w: %v", ErrSMSSend, sendErr)
	}

	metrics.RecordSMS("ok")
	s.logger.Info("sms code sent", "mobile", mobile)
	return nil
}

// CheckSMSCode compares code with the one issued for mobile. A matching code
// stays valid until it expires.
func (s *VerificationService) CheckSMSCode(ctx context.Context, mobile, code string) error {
	if mobile == "" || code == "" {
		return ErrMissingParam
	}

	stored, err := s.rdb.Get(ctx, SMSCodeKeyPrefix+mobile).Result()
	if errors.Is(err, redis.Nil) || (err == nil && stored == "") {
		metrics.RecordVerificationFailure("sms", "expired")
		return ErrSMSExpired
	}
	if err != nil {
		return fmt.Errorf("load sms code: %w", err)
	}
	if !strings.EqualFold(stored, code) {
		metrics.RecordVerificationFailure("sms", "mismatch")
		return ErrSMSMismatch
	}
	return nil
}

func (s *VerificationService) recordDispatch(ctx context.Context, entry models.SMSLog) {
	if s.smsLog == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), smsLogTimeout)
	defer cancel()

	if err := s.smsLog.Record(ctx, entry); err != nil {
		s.logger.Warn("failed to record sms dispatch", "mobile", entry.Mobile, "err", err)
	}
}

// generateSMSCode returns a uniform 6-digit, zero-padded code.
func generateSMSCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate sms code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
