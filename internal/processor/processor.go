package processor

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/sabo-club/internal/challenge"
	"github.com/mauv0809/sabo-club/internal/club"
	"github.com/mauv0809/sabo-club/internal/metrics"
	"github.com/mauv0809/sabo-club/internal/pubsub"
)

// New creates a new Processor.
func New(store Store, stats StatsStore, notifier Notifier, metrics metrics.Metrics, pubsub pubsub.PubSubClient) *Processor {
	return &Processor{
		store:    store,
		stats:    stats,
		pubsub:   pubsub,
		notifier: notifier,
		metrics:  metrics,
		now:      time.Now,
	}
}

// ProcessChallenges expires stale challenges, then advances every challenge
// that still needs work through the state machine.
func (p *Processor) ProcessChallenges(dryRun bool) {
	log.Info("Starting challenge processing...")
	p.metrics.IncProcessorRuns()

	if dryRun {
		log.Info("[Dry Run] Skipping expiry of stale challenges")
	} else if n, err := p.store.ExpireStale(p.now()); err != nil {
		log.Error("Failed to expire stale challenges", "error", err)
	} else if n > 0 {
		log.Info("Expired stale challenges", "count", n)
	}

	challenges, err := p.store.GetChallengesForProcessing()
	if err != nil {
		log.Error("Failed to get challenges for processing", "error", err)
		return
	}
	if len(challenges) == 0 {
		log.Info("No challenges to process.")
		return
	}

	log.Info("Found challenges to process", "count", len(challenges))
	for _, c := range challenges {
		startTime := time.Now()
		p.processChallenge(c, dryRun)
		p.metrics.ObserveProcessingDuration(time.Since(startTime).Seconds())
		p.metrics.IncChallengesProcessed()
	}
	log.Info("Challenge processing finished.")
}

func isClosedWithoutResult(s challenge.Status) bool {
	return s == challenge.StatusDeclined || s == challenge.StatusCancelled || s == challenge.StatusExpired
}

func (p *Processor) processChallenge(c *challenge.Challenge, dryRun bool) {
	log.Info("Processing challenge", "id", c.ID, "initial_status", c.ProcessingStatus, "status", c.Status)
	for {
		currentState := c.ProcessingStatus
		log.Debug("Evaluating challenge state", "id", c.ID, "status", currentState)

		switch currentState {
		case challenge.ProcessingNew:
			switch {
			case c.Status == challenge.StatusPending || c.Status == challenge.StatusOpen:
				log.Info("Challenge is new. Sending created notification.", "id", c.ID)
				if p.notify(c, p.notifier.SendChallengeCreated, dryRun) {
					p.updateStatus(c, challenge.ProcessingCreatedNotified, dryRun)
				}
			case c.Status == challenge.StatusAccepted:
				log.Info("Challenge was accepted before it was announced. Sending accepted notification.", "id", c.ID)
				if p.notify(c, p.notifier.SendChallengeAccepted, dryRun) {
					p.updateStatus(c, challenge.ProcessingAcceptedNotified, dryRun)
				}
			case c.Status == challenge.StatusCompleted:
				p.announceResult(c, dryRun)
			case isClosedWithoutResult(c.Status):
				log.Info("Challenge closed before it was announced. Marking as done.", "id", c.ID, "status", c.Status)
				p.updateStatus(c, challenge.ProcessingDone, dryRun)
			}

		case challenge.ProcessingCreatedNotified:
			switch {
			case c.Status == challenge.StatusAccepted:
				log.Info("Challenge accepted. Sending accepted notification.", "id", c.ID)
				if p.notify(c, p.notifier.SendChallengeAccepted, dryRun) {
					p.updateStatus(c, challenge.ProcessingAcceptedNotified, dryRun)
				}
			case c.Status == challenge.StatusCompleted:
				p.announceResult(c, dryRun)
			case isClosedWithoutResult(c.Status):
				log.Info("Challenge closed without a result. Marking as done.", "id", c.ID, "status", c.Status)
				p.updateStatus(c, challenge.ProcessingDone, dryRun)
			}

		case challenge.ProcessingAcceptedNotified:
			if c.Status == challenge.StatusCompleted {
				p.announceResult(c, dryRun)
			}

		case challenge.ProcessingResultNotified:
			log.Info("Challenge result has been announced. Updating member stats.", "id", c.ID)
			if dryRun {
				log.Info("[Dry Run] Would publish stats update", "id", c.ID)
			} else if err := p.pubsub.SendMessage(pubsub.EventUpdateMemberStats, c); err != nil {
				log.Error("Failed to publish stats update", "error", err, "id", c.ID)
				break
			}
			p.updateStatus(c, challenge.ProcessingStatsUpdated, dryRun)

		case challenge.ProcessingStatsUpdated:
			log.Info("Member stats updated. Marking challenge as done.", "id", c.ID)
			p.updateStatus(c, challenge.ProcessingDone, dryRun)

		case challenge.ProcessingDone:
			log.Debug("Challenge is done. No further processing needed.", "id", c.ID)
			return

		default:
			log.Warn("Unknown processing status", "status", currentState, "id", c.ID)
			return
		}

		// If the status hasn't changed, we're done with this challenge for now.
		if c.ProcessingStatus == currentState {
			log.Debug("Challenge state did not change. Finished processing for now.", "id", c.ID, "status", currentState)
			break
		}
	}
	log.Info("Finished processing challenge", "id", c.ID, "final_status", c.ProcessingStatus)
}

// announceResult hands the result notification to Pub/Sub. Dry runs render
// it directly instead.
func (p *Processor) announceResult(c *challenge.Challenge, dryRun bool) {
	log.Info("Challenge completed. Announcing result.", "id", c.ID, "winner", c.WinnerID)
	if dryRun {
		if err := p.notifier.SendChallengeResult(c, true); err != nil {
			log.Error("Failed to render result notification", "error", err, "id", c.ID)
		}
	} else if err := p.pubsub.SendMessage(pubsub.EventNotifyResult, c); err != nil {
		log.Error("Failed to publish result notification", "error", err, "id", c.ID)
		return
	}
	p.updateStatus(c, challenge.ProcessingResultNotified, dryRun)
}

func (p *Processor) notify(c *challenge.Challenge, send func(*challenge.Challenge, bool) error, dryRun bool) bool {
	if err := send(c, dryRun); err != nil {
		log.Error("Failed to send notification, will retry on the next run", "error", err, "id", c.ID)
		return false
	}
	return true
}

// NotifyResult sends the result announcement for a completed challenge.
func (p *Processor) NotifyResult(c *challenge.Challenge, dryRun bool) error {
	if c.Status != challenge.StatusCompleted {
		return fmt.Errorf("%w: challenge %s is %s", challenge.ErrInvalidTransition, c.ID, c.Status)
	}
	return p.notifier.SendChallengeResult(c, dryRun)
}

// UpdateMemberStats applies a completed challenge to both members' stats.
// Only the stored record is trusted; the message that named it may be stale
// or redelivered.
func (p *Processor) UpdateMemberStats(msg *challenge.Challenge) error {
	c, err := p.store.GetChallenge(msg.ID)
	if err != nil {
		return err
	}
	if c.Status != challenge.StatusCompleted || c.WinnerID == "" {
		return fmt.Errorf("%w: challenge %s has no result", challenge.ErrInvalidTransition, c.ID)
	}
	if c.ChallengerScore == nil || c.OpponentScore == nil {
		return errors.New("completed challenge is missing its score")
	}
	log.Debug("Updating member stats", "id", c.ID)

	update := club.StatsUpdate{ChallengeID: c.ID, WinnerID: c.WinnerID, LoserID: c.LoserID()}
	if c.WinnerID == c.ChallengerID {
		update.WinnerRacks, update.LoserRacks = *c.ChallengerScore, *c.OpponentScore
	} else {
		update.WinnerRacks, update.LoserRacks = *c.OpponentScore, *c.ChallengerScore
	}
	return p.stats.UpdateMemberStats(update)
}

func (p *Processor) updateStatus(c *challenge.Challenge, newStatus challenge.ProcessingStatus, dryRun bool) {
	if dryRun {
		log.Info("[Dry Run] Would update challenge status", "id", c.ID, "from", c.ProcessingStatus, "to", newStatus)
		c.ProcessingStatus = newStatus // Update in-memory for the loop
		return
	}

	if err := p.store.UpdateProcessingStatus(c.ID, newStatus); err != nil {
		log.Error("Failed to update processing status", "error", err, "id", c.ID)
		return
	}
	log.Debug("Successfully updated status", "id", c.ID, "from", c.ProcessingStatus, "to", newStatus)
	c.ProcessingStatus = newStatus // Keep the in-memory object in sync
}
