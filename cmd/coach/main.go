// Command coach is a local/manual entrypoint wiring the Execution
// Controller and Planning Pipeline together over the MCP tool-client
// boundary, for driving a conversation from the command line without a
// full chat front-end.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/virtus-coach/coach/internal/config"
	"github.com/virtus-coach/coach/internal/controller"
	"github.com/virtus-coach/coach/internal/corpus"
	"github.com/virtus-coach/coach/internal/extraction"
	"github.com/virtus-coach/coach/internal/logging"
	"github.com/virtus-coach/coach/internal/mcpclient"
	"github.com/virtus-coach/coach/internal/planning"
	"github.com/virtus-coach/coach/internal/slots"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "coach: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger, err := logging.New(os.Getenv("COACH_ENV"))
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Fail-closed: refuse to start a turn if either tool endpoint is
	// unconfigured (spec.md §4.1, §5, P8).
	tools, err := mcpclient.New(cfg.DataToolEndpoint, cfg.PromptToolEndpoint, cfg.ToolCallTimeout)
	if err != nil {
		return fmt.Errorf("tool client refused to start (fail-closed): %w", err)
	}

	registry := slots.NewRegistry()
	extractor := extraction.New(registry)
	classifier := controller.NewClassifier(nil)
	ctl := controller.New(tools, extractor, registry, classifier, logger, time.Now)

	corpusRoot := os.Getenv("COACH_CORPUS_DIR")
	if corpusRoot == "" {
		corpusRoot = "./corpus"
	}
	cache := corpus.NewCache(corpus.FileSource{Root: corpusRoot})
	pipeline := planning.New(cache, tools, nil, logger)

	userID := os.Getenv("COACH_USER_ID")
	if userID == "" {
		userID = "local-user"
	}
	conversationID := os.Getenv("COACH_CONVERSATION_ID")
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.TurnDeadline)
	defer cancel()

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("coach> type a message (Ctrl-D to exit)")
	for scanner.Scan() {
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}

		turnCtx, turnCancel := context.WithTimeout(ctx, cfg.TurnDeadline)
		response, err := ctl.Turn(turnCtx, conversationID, userID, message)
		turnCancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "turn failed: %v\n", err)
			continue
		}

		fmt.Println(response.Text)
		if response.ShouldExecute {
			if err := runPlan(ctx, pipeline, userID, response.FilledSlots, cfg.PlanDeadline); err != nil {
				fmt.Fprintf(os.Stderr, "plan generation failed: %v\n", err)
			}
		}
	}
	return scanner.Err()
}

// runPlan builds the AthleteProfile the pipeline runs on from the turn's
// actual filled slots (spec.md §3 Planning Context), the Execution
// Controller's only handoff to the Planning Pipeline.
func runPlan(ctx context.Context, pipeline *planning.Pipeline, userID string, filledSlots map[string]string, deadline time.Duration) error {
	planCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	profile, err := athleteProfileFromSlots(userID, filledSlots, time.Now())
	if err != nil {
		return fmt.Errorf("building athlete profile from filled slots: %w", err)
	}

	planID := uuid.NewString()
	_, err = pipeline.Run(planCtx, planID, profile, 0, nil)
	return err
}

// athleteProfileFromSlots converts the controller's canonical filled slots
// (internal/slots' normalized forms) into a Planning Context. race_distance
// and race_date are required by ActionPlanRaceBuild/ActionPlanSeason, so
// their absence here means Turn executed before slot-filling actually
// completed — a controller invariant violation, not a recoverable input.
func athleteProfileFromSlots(userID string, filledSlots map[string]string, now time.Time) (planning.AthleteProfile, error) {
	raceDistance, ok := filledSlots[string(slots.RaceDistance)]
	if !ok || raceDistance == "" {
		return planning.AthleteProfile{}, fmt.Errorf("missing filled slot %q", slots.RaceDistance)
	}
	raceDateRaw, ok := filledSlots[string(slots.RaceDate)]
	if !ok || raceDateRaw == "" {
		return planning.AthleteProfile{}, fmt.Errorf("missing filled slot %q", slots.RaceDate)
	}
	raceDate, err := time.Parse("2006-01-02", raceDateRaw)
	if err != nil {
		return planning.AthleteProfile{}, fmt.Errorf("parsing filled slot %q: %w", slots.RaceDate, err)
	}

	profile := planning.AthleteProfile{
		UserID:       userID,
		RaceDistance: raceDistance,
		RaceDate:     raceDate,
		PlanStart:    now,
		Audience:     "general",
	}

	if raw, ok := filledSlots[string(slots.TargetTime)]; ok {
		if seconds, err := targetTimeSeconds(raw); err == nil {
			profile.TargetTimeSeconds = seconds
		}
	}
	if raw, ok := filledSlots[string(slots.WeeklyMileage)]; ok {
		if mileage, err := strconv.ParseFloat(raw, 64); err == nil {
			profile.WeeklyMileage = mileage
		}
	}
	return profile, nil
}

// targetTimeSeconds parses the canonical "HH:MM:SS" form
// slots.NormalizeTargetTime produces.
func targetTimeSeconds(canonical string) (int, error) {
	var h, m, s int
	if _, err := fmt.Sscanf(canonical, "%d:%d:%d", &h, &m, &s); err != nil {
		return 0, err
	}
	return h*3600 + m*60 + s, nil
}
