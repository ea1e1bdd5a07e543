package actors

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"buildfund/onboarding"
)

// borrowerScript cycles through plausible answers for the borrower sequence.
// Order does not need to match the step order exactly: unparseable answers
// re-issue the step, which is itself worth exercising under load.
var borrowerScript = []string{
	"Yes, let's start",
	"John",
	"Smith",
	"14/02/1985",
	"British",
	"+44 7700 900123",
	"SW1A 1AA",
	"Yes, that's correct",
	"12345678",
	"yes",
	"Jane Doe, 01/03/1970, British",
	"55000",
	"Employed",
	"1800",
	"250000, 15000, 5000, 0",
	"180000, 12000, 3000, 0",
	"Asset Finance",
	"Excavator",
	"85000",
	"5",
	"skip",
	"Yes, everything is correct",
}

// Onboarder drives full conversation turns through the service stack,
// re-starting from the top once a run completes.
func Onboarder(ctx context.Context, svc *onboarding.ConversationService, userID string, role onboarding.Role, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		start, err := svc.StartOrResume(ctx, userID, role, "")
		if err != nil {
			// transient under chaos, retry unless the run is over
			if ctx.Err() != nil {
				return ctx.Err()
			}
			time.Sleep(50 * time.Millisecond)
			continue
		}

		sessionID := start.SessionID
		for _, answer := range borrowerScript {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-stop:
				return nil
			default:
			}

			resp, err := svc.HandleMessage(ctx, onboarding.TurnRequest{
				UserID:    userID,
				Role:      role,
				SessionID: sessionID,
				Message:   answer,
			})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				break
			}
			sessionID = resp.SessionID

			time.Sleep(time.Duration(5+rand.Intn(15)) * time.Millisecond)
		}
	}
}

// Uploader registers documents for the user, racing the checklist gate.
func Uploader(ctx context.Context, pool *pgxpool.Pool, userID string, stop <-chan struct{}) error {
	files := []struct{ name, category string }{
		{"passport.pdf", "identity"},
		{"utility_bill.pdf", "address"},
		{"bank_statements.pdf", "financial"},
		{"company_accounts.pdf", "financial"},
		{"certificate_of_incorporation.pdf", "company"},
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		f := files[rand.Intn(len(files))]
		_, err := pool.Exec(ctx, `INSERT INTO documents (user_id, file_name, file_type, category) VALUES ($1,$2,'application/pdf',$3)`,
			userID, f.name, f.category)
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}

		time.Sleep(time.Duration(50+rand.Intn(100)) * time.Millisecond)
	}
}

// ProgressReader polls the progress aggregate, checking the basic shape on
// every read.
func ProgressReader(ctx context.Context, svc *onboarding.ConversationService, userID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		prog, err := svc.Progress(ctx, userID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			time.Sleep(50 * time.Millisecond)
			continue
		}
		if prog.CompletionPercentage < 0 || prog.CompletionPercentage > 100 {
			return fmt.Errorf("progress out of range: %d", prog.CompletionPercentage)
		}

		time.Sleep(time.Duration(30+rand.Intn(50)) * time.Millisecond)
	}
}
