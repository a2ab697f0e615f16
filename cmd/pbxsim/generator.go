package main

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pbxwatch/backend/internal/types"
	"github.com/rs/zerolog"
)

type simAgent struct {
	userID string
	name   string
	email  string
	number string
}

var (
	queues = []string{"Sales", "Support", "Technical", "Retention"}

	callStatuses = []string{"Completed", "Answered", "Abandoned", "Missed"}

	callingNumbers = []string{
		"003228829609", // Belgium
		"0033140201010", // France
		"00491701234567", // Germany
		"00441632960961", // United Kingdom
		"0021612345678", // Tunisia
		"551199887766",  // no known prefix
	}

	agents = []simAgent{
		{userID: "u-1001", name: "Alice Martin", email: "alice.martin@example.com", number: "101"},
		{userID: "u-1002", name: "Bram Peeters", email: "bram.peeters@example.com", number: "102"},
		{userID: "u-1003", name: "Carla Dupont", email: "carla.dupont@example.com", number: "103"},
		{userID: "u-1004", name: "Dirk Janssens", email: "dirk.janssens@example.com", number: "104"},
	}

	profileNames = []string{"Available", "Lunch", "Meeting", "Training"}
)

// Generator produces synthetic PBX traffic and pushes it to the backend.
type Generator struct {
	mu             sync.RWMutex
	client         *APIClient
	logger         zerolog.Logger
	callInterval   time.Duration
	statusInterval time.Duration
	transferRate   float64
}

// NewGenerator creates a Generator with the given pacing.
func NewGenerator(client *APIClient, callInterval, statusInterval time.Duration, logger zerolog.Logger) *Generator {
	return &Generator{
		client:         client,
		logger:         logger,
		callInterval:   callInterval,
		statusInterval: statusInterval,
		transferRate:   0.3,
	}
}

// SetTransferRate sets the probability that a generated call spawns a
// transfer leg. 0 disables transfers, 1 transfers every call.
func (g *Generator) SetTransferRate(rate float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.transferRate = rate
}

// Run generates traffic until ctx is cancelled. It spawns one goroutine for
// the call stream and one for the hourly status streams, and blocks until
// both finish.
func (g *Generator) Run(ctx context.Context) {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		g.runCalls(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		g.runStatusTicks(ctx)
	}()

	wg.Wait()
}

// runCalls emits one call per interval with jitter, occasionally followed by
// a transfer leg referencing the parent call. Each stream goroutine owns its
// rand.Rand, they are not safe to share.
func (g *Generator) runCalls(ctx context.Context) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		jitter := time.Duration(float64(g.callInterval) * (rng.Float64()*0.5 - 0.25)) // +/-25%
		sleep := g.callInterval + jitter
		if sleep < time.Millisecond {
			sleep = time.Millisecond
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(sleep):
		}

		if err := g.emitCall(rng); err != nil {
			g.logger.Error().Err(err).Msg("failed to push call")
		}
	}
}

// emitCall builds one call record plus its advanced call events and posts
// them to the backend.
func (g *Generator) emitCall(rng *rand.Rand) error {
	g.mu.RLock()
	transferRate := g.transferRate
	g.mu.RUnlock()

	now := time.Now().UTC()
	agent := agents[rng.Intn(len(agents))]
	queue := queues[rng.Intn(len(queues))]
	status := callStatuses[rng.Intn(len(callStatuses))]
	number := callingNumbers[rng.Intn(len(callingNumbers))]
	direction := "Incoming"
	if rng.Float64() < 0.4 {
		direction = "Outgoing"
	}

	callID := uuid.New().String()
	call := types.CallRecord{
		CallID:                callID,
		EnterDatetime:         now.Format(time.RFC3339),
		Status:                status,
		StatusDetail:          direction,
		QueueName:             queue,
		CallingNumber:         number,
		TimeInQueueSeconds:    rng.Intn(120),
		TalkTimeSeconds:       rng.Intn(600),
		Agent:                 agent.name,
		AgentID:               agent.userID,
		ProcessingTimeSeconds: rng.Intn(900),
	}

	events := []types.AdvancedCallEvent{{
		CallID:                callID,
		EnterDatetime:         call.EnterDatetime,
		Status:                status,
		StatusDetail:          direction,
		QueueName:             queue,
		CallingNumber:         number,
		TimeInQueueSeconds:    call.TimeInQueueSeconds,
		TalkTimeSeconds:       call.TalkTimeSeconds,
		Agent:                 agent.name,
		AgentID:               agent.userID,
		AgentNumber:           agent.number,
		ProcessingTimeSeconds: call.ProcessingTimeSeconds,
	}}

	// Some calls get transferred to a second agent
	if rng.Float64() < transferRate {
		target := agents[rng.Intn(len(agents))]
		events = append(events, types.AdvancedCallEvent{
			CallID:        uuid.New().String(),
			ParentCallID:  callID,
			EnterDatetime: now.Add(time.Duration(30+rng.Intn(90)) * time.Second).Format(time.RFC3339),
			Status:        "Completed",
			StatusDetail:  "Transfer",
			QueueName:     queue,
			CallingNumber: number,
			Agent:         target.name,
			AgentID:       target.userID,
			AgentNumber:   target.number,
		})
	}

	if err := g.client.PostCalls([]types.CallRecord{call}); err != nil {
		return err
	}
	if err := g.client.PostAdvancedCalls(events); err != nil {
		return err
	}

	g.logger.Debug().
		Str("call_id", callID).
		Str("queue", queue).
		Int("events", len(events)).
		Msg("pushed call")
	return nil
}

// runStatusTicks emits agent status and profile availability records for the
// current hour on every interval.
func (g *Generator) runStatusTicks(ctx context.Context) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + 1))
	ticker := time.NewTicker(g.statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := g.emitStatusTick(rng, now.UTC()); err != nil {
				g.logger.Error().Err(err).Msg("failed to push status tick")
			}
		}
	}
}

// emitStatusTick posts one agent status record and one profile availability
// record per agent for the hour containing now.
func (g *Generator) emitStatusTick(rng *rand.Rand, now time.Time) error {
	date := now.Format("2006-01-02")
	hour := now.Hour()

	statuses := make([]types.AgentStatusRecord, 0, len(agents))
	availability := make([]types.ProfileAvailabilityRecord, 0, len(agents))

	for _, agent := range agents {
		loggedIn := 30 + rng.Intn(31)
		idle := rng.Intn(60 - loggedIn + 1)
		statuses = append(statuses, types.AgentStatusRecord{
			UserID:    agent.userID,
			User:      agent.name,
			Email:     agent.email,
			Date:      date,
			Hour:      hour,
			QueueName: queues[rng.Intn(len(queues))],
			LoggedIn:  loggedIn,
			Idle:      idle,
			LoggedOut: 60 - loggedIn - idle,
		})

		// One active profile per hour, the rest stay at zero
		active := rng.Intn(len(profileNames))
		profiles := make([]types.ProfileMinutes, 0, len(profileNames))
		for i, name := range profileNames {
			minutes := 0
			if i == active {
				minutes = loggedIn
			}
			profiles = append(profiles, types.ProfileMinutes{Name: name, Minutes: minutes})
		}
		availability = append(availability, types.ProfileAvailabilityRecord{
			UserID:   agent.userID,
			User:     agent.name,
			Email:    agent.email,
			Date:     date,
			Hour:     hour,
			Profiles: profiles,
		})
	}

	if err := g.client.PostAgentStatus(statuses); err != nil {
		return err
	}
	if err := g.client.PostProfileAvailability(availability); err != nil {
		return err
	}

	g.logger.Info().
		Str("date", date).
		Int("hour", hour).
		Int("agents", len(agents)).
		Msg("pushed status tick")
	return nil
}
