package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"petitionhub-backend/config"
	"petitionhub-backend/identity"
	"petitionhub-backend/locale"
	"petitionhub-backend/logger"
	"petitionhub-backend/migrations"
	"petitionhub-backend/models"
	"petitionhub-backend/repository"
	"petitionhub-backend/service"
	"petitionhub-backend/validation"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	demoEmail    = "demo@petitionhub.local"
	demoPassword = "demopassword123"
)

type demoPetition struct {
	title       string
	category    string // display label, as the home page mock data stored it
	description string
	signatures  int
	target      int64
	months      int
}

var demoPetitions = []demoPetition{
	{
		title:       "Lindungi Taman Lokal Kita dari Pembangunan Kota",
		category:    "Lingkungan",
		description: "Taman lokal kita adalah paru-paru hijau bagi komunitas kita, menyediakan ruang untuk rekreasi, relaksasi, dan keanekaragaman hayati. Kami mendesak dewan kota untuk menolak proposal pembangunan yang mengancam ruang hijau ini.",
		signatures:  1250,
		target:      5000,
		months:      2,
	},
	{
		title:       "Tingkatkan Transportasi Publik di Area Pusat Kota",
		category:    "Pembangunan Kota",
		description: "Lalu lintas di pusat kota menjadi tak tertahankan. Petisi ini menyerukan peningkatan dana, perluasan rute bus, dan eksplorasi sistem kereta ringan untuk membuat kota kita lebih mudah diakses.",
		signatures:  342,
		target:      1000,
		months:      4,
	},
	{
		title:       "Tingkatkan Dana untuk Sekolah Umum",
		category:    "Pendidikan",
		description: "Sekolah-sekolah umum di distrik kita kekurangan dana, yang menyebabkan kelas yang terlalu padat dan materi yang sudah usang. Kami menuntut agar pemerintah daerah memprioritaskan anggaran pendidikan.",
		signatures:  879,
		target:      2500,
		months:      1,
	},
	{
		title:       "Bangun Penampungan Hewan Baru Tanpa Eutanasia",
		category:    "Hak-Hak Hewan",
		description: "Ribuan hewan terlantar di-eutanasia setiap tahun karena kurangnya ruang di penampungan lokal. Penampungan baru tanpa eutanasia akan memberi mereka kesempatan untuk menemukan rumah yang penuh kasih.",
		signatures:  4112,
		target:      10000,
		months:      7,
	},
}

func main() {
	cfg, _, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.App.Env, cfg.App.LogLevel)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("seeding failed", logger.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	var (
		petitions service.PetitionStore
		users     service.UserStore
	)

	switch cfg.App.StoreBackend {
	case config.BackendFirestore:
		app, err := identity.NewFirebaseApp(ctx, cfg.Firebase)
		if err != nil {
			return err
		}
		client, err := app.Firestore(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize Firestore: %w", err)
		}
		defer client.Close()
		petitions = repository.NewFirestorePetitionRepository(client)
		users = repository.NewFirestoreUserRepository(client)

	default:
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()
		if err := migrations.Up(pool); err != nil {
			return err
		}
		petitions = repository.NewPetitionRepository(pool)
		users = repository.NewUserRepository(pool)
	}

	userID, err := ensureDemoUser(ctx, cfg, users)
	if err != nil {
		return err
	}

	existing, err := petitions.ListByCreator(ctx, userID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Info("demo petitions already exist", slog.Int("count", len(existing)))
		return nil
	}

	petitionService := service.NewPetitionService(
		service.WithPetitionStore(petitions),
		service.WithLogger(log),
	)

	now := time.Now().UTC()
	for _, demo := range demoPetitions {
		category, ok := locale.FromLabel(demo.category)
		if !ok {
			return fmt.Errorf("unknown category label %q", demo.category)
		}

		result, err := petitionService.CreatePetition(ctx, service.CreatePetitionRequest{
			CreatorID: userID,
			Input: validation.PetitionInput{
				Title:       demo.title,
				Description: demo.description,
				Target:      validation.IntValue(demo.target),
				Category:    string(category),
				Deadline:    now.AddDate(0, demo.months, 0).Format(time.DateOnly),
				Visibility:  string(models.VisibilityPublic),
			},
		})
		if err != nil {
			return fmt.Errorf("create %q: %w", demo.title, err)
		}

		if err := addSupporters(ctx, petitions, result.Petition, demo.signatures); err != nil {
			return err
		}
		fmt.Printf("✓ %s (%d/%d)\n", demo.title, demo.signatures, demo.target)
	}

	fmt.Printf("✅ Demo data seeded\n")
	fmt.Printf("   Email: %s\n", demoEmail)
	fmt.Printf("   Password: %s\n", demoPassword)
	return nil
}

func ensureDemoUser(ctx context.Context, cfg *config.Config, users service.UserStore) (string, error) {
	existing, err := users.GetByEmail(ctx, demoEmail)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	provider := identity.NewLocalProvider(users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	return provider.SignUp(ctx, identity.Credentials{
		Email:     demoEmail,
		Password:  demoPassword,
		FirstName: "Demo",
		LastName:  "Creator",
	})
}

func addSupporters(ctx context.Context, petitions service.PetitionStore, p *models.Petition, n int) error {
	for i := 0; i < n; i++ {
		sig, err := validation.ValidateSignature(validation.SignatureInput{
			Name:  fmt.Sprintf("Supporter %d", i+1),
			Email: fmt.Sprintf("supporter-%d@example.org", i+1),
		})
		if err != nil {
			return err
		}
		sig.PetitionID = p.ID
		if err := petitions.AddSignature(ctx, sig); err != nil {
			return fmt.Errorf("sign %q: %w", p.Title, err)
		}
	}
	return nil
}
