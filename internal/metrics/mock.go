package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                  sync.Mutex
	processorRuns       int
	challengesProcessed int
	processingDurations []float64
	slackNotifSent      int
	slackNotifFailed    int
	startupTime         float64
	resolutions         map[string]int
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		processingDurations: make([]float64, 0),
		resolutions:         make(map[string]int),
	}
}

func (m *Mock) IncProcessorRuns() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processorRuns++
}

func (m *Mock) IncChallengesProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challengesProcessed++
}

func (m *Mock) ObserveProcessingDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processingDurations = append(m.processingDurations, duration)
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

func (m *Mock) IncHandicapResolution(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolutions[outcome]++
}

// ProcessorRuns returns the number of times IncProcessorRuns was called.
func (m *Mock) ProcessorRuns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processorRuns
}

// ChallengesProcessed returns the number of times IncChallengesProcessed was called.
func (m *Mock) ChallengesProcessed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.challengesProcessed
}

// ProcessingDurations returns every observed duration.
func (m *Mock) ProcessingDurations() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float64, len(m.processingDurations))
	copy(out, m.processingDurations)
	return out
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}

// StartupTime returns the last value passed to SetStartupTime.
func (m *Mock) StartupTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startupTime
}

// HandicapResolutions returns how often an outcome was recorded.
func (m *Mock) HandicapResolutions(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolutions[outcome]
}
