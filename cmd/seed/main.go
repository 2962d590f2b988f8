// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev user (dev@example.com) already exists.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	analysisdomain "saysense/backend/internal/analysis/domain"
	analysisrepo "saysense/backend/internal/analysis/repository"
	"saysense/backend/internal/config"
	"saysense/backend/internal/db"
	feedbackdomain "saysense/backend/internal/feedback/domain"
	feedbackrepo "saysense/backend/internal/feedback/repository"
	"saysense/backend/internal/security"
	sessiondomain "saysense/backend/internal/session/domain"
	sessionrepo "saysense/backend/internal/session/repository"
	transcriptdomain "saysense/backend/internal/transcript/domain"
	transcriptrepo "saysense/backend/internal/transcript/repository"
	userdomain "saysense/backend/internal/user/domain"
	userrepo "saysense/backend/internal/user/repository"
)

const (
	devUserEmail = "dev@example.com"
	devPassword  = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)
	sessions := sessionrepo.NewPostgresRepository(conn)
	segments := transcriptrepo.NewPostgresRepository(conn)
	metrics := analysisrepo.NewPostgresRepository(conn)
	suggestions := feedbackrepo.NewPostgresRepository(conn)

	existing, err := users.GetByEmail(ctx, devUserEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (dev@example.com exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	user := &userdomain.User{
		ID:            uuid.NewString(),
		Email:         devUserEmail,
		PasswordHash:  passwordHash,
		Role:          userdomain.RoleUser,
		Name:          "Dev User",
		PreferredLang: "en",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := users.Create(ctx, user); err != nil {
		log.Fatalf("create dev user: %v", err)
	}

	sentiment := 0.72
	session := &sessiondomain.Session{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Title:       "Quarterly All-Hands Practice",
		SessionType: sessiondomain.TypeLive,
		SourceType:  sessiondomain.SourceMicrophone,
		Language:    "en",
		Status:      sessiondomain.StatusCompleted,
		DurationSec: 420,
		CompletedAt: &now,
		Summary:     "Practice run for the Q3 all-hands. Strong opening, pacing dipped in the middle.",
		Sentiment:   &sentiment,
		Tags:        []string{"practice", "all-hands"},
		CreatedAt:   now,
	}
	if err := sessions.Create(ctx, session); err != nil {
		log.Fatalf("create session: %v", err)
	}
	if err := sessions.CreateParticipant(ctx, &sessiondomain.Participant{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Name:      "Self",
		Role:      "speaker",
		CreatedAt: now,
	}); err != nil {
		log.Fatalf("create participant: %v", err)
	}

	confidence := 0.94
	segs := []transcriptdomain.Segment{
		{
			ID:           uuid.NewString(),
			SessionID:    session.ID,
			StartTime:    0,
			EndTime:      14.5,
			SpeakerLabel: "Speaker",
			Transcript:   "Good morning everyone, thanks for joining. Today I want to walk through our Q3 results.",
			Confidence:   &confidence,
			CreatedAt:    now,
		},
		{
			ID:           uuid.NewString(),
			SessionID:    session.ID,
			StartTime:    14.5,
			EndTime:      31.0,
			SpeakerLabel: "Speaker",
			Transcript:   "Revenue grew eighteen percent quarter over quarter, driven mostly by the new enterprise tier.",
			Confidence:   &confidence,
			Highlights:   []string{"eighteen percent"},
			CreatedAt:    now,
		},
	}
	if err := segments.CreateBatch(ctx, segs); err != nil {
		log.Fatalf("create segments: %v", err)
	}

	sample := []analysisdomain.Metric{
		{ID: uuid.NewString(), SessionID: session.ID, Type: analysisdomain.MetricTone, Value: 0.78, Timestamp: 15, CreatedAt: now},
		{ID: uuid.NewString(), SessionID: session.ID, Type: analysisdomain.MetricSpeed, Value: 152, Timestamp: 15, CreatedAt: now},
		{ID: uuid.NewString(), SessionID: session.ID, Type: analysisdomain.MetricClarity, Value: 0.91, Timestamp: 15, CreatedAt: now},
		{ID: uuid.NewString(), SessionID: session.ID, Type: analysisdomain.MetricSentiment, Value: 0.72, Timestamp: 15, Label: "positive", CreatedAt: now},
	}
	if err := metrics.CreateBatch(ctx, sample); err != nil {
		log.Fatalf("create metrics: %v", err)
	}

	start, end := 120.0, 180.0
	tips := []feedbackdomain.Suggestion{
		{
			ID:        uuid.NewString(),
			SessionID: session.ID,
			Type:      feedbackdomain.SuggestionPacing,
			Severity:  feedbackdomain.SeverityMedium,
			Message:   "Pace dropped noticeably in the results section; tighten the transitions.",
			StartTime: &start,
			EndTime:   &end,
			CreatedAt: now,
		},
		{
			ID:        uuid.NewString(),
			SessionID: session.ID,
			Type:      feedbackdomain.SuggestionEmphasis,
			Severity:  feedbackdomain.SeverityLow,
			Message:   "Strong delivery overall. Pause briefly after the revenue headline to let it land.",
			CreatedAt: now,
		},
	}
	if err := suggestions.CreateBatch(ctx, tips); err != nil {
		log.Fatalf("create suggestions: %v", err)
	}

	log.Println("Seed completed successfully.")
	log.Printf("Dev login: %s / %s", devUserEmail, devPassword)
}
