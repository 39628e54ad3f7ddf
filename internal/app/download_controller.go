package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/yourusername/mediagrab-go/internal/domain"
	"go.uber.org/zap"
)

// Status texts reported to the observer
const (
	MsgDownloading           = "Downloading"
	MsgProcessing            = "Processing file..."
	MsgTranscoding           = "Transcoding video..."
	MsgDone                  = "Done"
	MsgCancellationRequested = "Cancellation requested"
	MsgNothingToCancel       = "No download in progress"
)

// ErrBusy is returned when a request is submitted while another is in flight
var ErrBusy = errors.New("a download is already in progress")

// EventLog receives request lifecycle events for the categorized log files
type EventLog interface {
	LogDownloadEvent(event string, fields ...zap.Field)
	LogAppError(msg string, fields ...zap.Field)
}

type nopEventLog struct{}

func (nopEventLog) LogDownloadEvent(string, ...zap.Field) {}
func (nopEventLog) LogAppError(string, ...zap.Field)      {}

// DownloadController runs one download request at a time on a background
// goroutine. The cancellation flag is the only state the worker shares
// with callers; everything else the worker touches is owned by it.
type DownloadController struct {
	fetcher   domain.Fetcher
	processor domain.VideoProcessor
	encoders  domain.EncoderSource
	history   domain.HistoryRepository
	notifier  domain.Notifier
	events    EventLog
	logger    *zap.Logger

	removeFile func(string) error

	ctx    context.Context
	cancel context.CancelFunc

	cancelFlag atomic.Bool
	wg         sync.WaitGroup

	mu       sync.Mutex
	state    domain.ControllerState
	observer domain.Observer
}

// NewDownloadController creates a controller. history, notifier and events
// may be nil.
func NewDownloadController(
	fetcher domain.Fetcher,
	processor domain.VideoProcessor,
	encoders domain.EncoderSource,
	history domain.HistoryRepository,
	notifier domain.Notifier,
	events EventLog,
	logger *zap.Logger,
) *DownloadController {
	if events == nil {
		events = nopEventLog{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &DownloadController{
		fetcher:    fetcher,
		processor:  processor,
		encoders:   encoders,
		history:    history,
		notifier:   notifier,
		events:     events,
		logger:     logger,
		removeFile: os.Remove,
		ctx:        ctx,
		cancel:     cancel,
		state:      domain.StateIdle,
	}
}

// State returns the controller's lifecycle state
func (c *DownloadController) State() domain.ControllerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *DownloadController) setState(state domain.ControllerState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

// advance moves the worker to the next phase unless a cancel is pending
func (c *DownloadController) advance(state domain.ControllerState) {
	c.mu.Lock()
	if c.state != domain.StateCancelling {
		c.state = state
	}
	c.mu.Unlock()
}

// Submit validates the request and starts the worker. Validation errors are
// reported to the observer and returned; no worker is started for them.
func (c *DownloadController) Submit(req domain.DownloadRequest, observer domain.Observer) error {
	c.mu.Lock()
	if c.state != domain.StateIdle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = domain.StateValidating
	c.observer = observer
	c.mu.Unlock()

	validated, err := ValidateRequest(req)
	if err != nil {
		c.setState(domain.StateFailed)
		observer.OnStatus(err.Error())
		observer.OnControlState(domain.Idle)
		c.events.LogDownloadEvent("download rejected",
			zap.String("url", req.URL),
			zap.String("mode", string(req.Mode)),
			zap.String("reason", err.Error()))
		c.setState(domain.StateIdle)
		return err
	}

	observer.OnControlState(domain.Busy)
	c.cancelFlag.Store(false)

	record := domain.NewDownloadRecord(validated)
	if c.history != nil {
		if err := c.history.Create(record); err != nil {
			c.logger.Warn("Failed to create history record", zap.String("id", record.ID), zap.Error(err))
		}
	}

	c.logger.Info("Download submitted",
		zap.String("id", record.ID),
		zap.String("url", validated.URL),
		zap.String("mode", string(validated.Mode)),
		zap.String("quality", validated.Quality))
	c.events.LogDownloadEvent("download submitted",
		zap.String("id", record.ID),
		zap.String("url", validated.URL),
		zap.String("mode", string(validated.Mode)),
		zap.String("quality", validated.Quality),
		zap.String("destination", validated.Destination))

	observer.OnProgress(domain.ProgressEvent{Phase: domain.PhaseDownloading, Percent: 0, Message: MsgDownloading})
	observer.OnStatus(MsgDownloading)

	c.setState(domain.StateFetching)
	c.wg.Add(1)
	go c.run(validated, observer, record)
	return nil
}

// Cancel requests cancellation of the in-flight request. The worker observes
// it the next time the fetch engine reports progress. It reports false, and
// changes nothing, when no request is fetching or transcoding.
func (c *DownloadController) Cancel() bool {
	c.mu.Lock()
	switch c.state {
	case domain.StateFetching, domain.StateTranscoding:
		c.state = domain.StateCancelling
	case domain.StateCancelling:
	default:
		c.mu.Unlock()
		return false
	}
	observer := c.observer
	c.cancelFlag.Store(true)
	c.mu.Unlock()

	c.logger.Info("Cancellation requested")
	observer.OnStatus(MsgCancellationRequested)
	return true
}

// Wait blocks until the in-flight worker, if any, has finished
func (c *DownloadController) Wait() {
	c.wg.Wait()
}

// Close kills any running subprocess and waits for the worker
func (c *DownloadController) Close() {
	c.cancel()
	c.wg.Wait()
}

func (c *DownloadController) run(req domain.DownloadRequest, observer domain.Observer, record *domain.DownloadRecord) {
	var (
		filename   string
		outputPath string
		runErr     error
	)

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Download worker panicked", zap.String("id", record.ID), zap.Any("panic", r))
			runErr = fmt.Errorf("unexpected failure: %v", r)
			classified := domain.ClassifiedError{
				Category:    domain.ErrorUnknown,
				DisplayText: fmt.Sprintf("Error: Unexpected failure: %v", r),
			}
			observer.OnStatus(classified.DisplayText)
			record.MarkFailed(classified)
		}

		c.cancelFlag.Store(false)
		observer.OnControlState(domain.Idle)
		c.finalize(req, record, runErr)
		c.setState(domain.StateIdle)
		c.wg.Done()
	}()

	hook := func(p domain.FetchProgress) error {
		switch p.Status {
		case domain.FetchDownloading:
			if p.Filename != "" {
				filename = p.Filename
			}
			percent, known := domain.ComputePercent(p.DownloadedBytes, p.TotalBytes, p.TotalBytesEstimate)
			observer.OnProgress(domain.ProgressEvent{
				Phase:         domain.PhaseDownloading,
				Percent:       percent,
				Indeterminate: !known,
				Message:       MsgDownloading,
			})
			if known {
				observer.OnStatus(fmt.Sprintf("Downloading: %d%%", percent))
			} else {
				observer.OnStatus("Downloading...")
			}

			if c.cancelFlag.Load() {
				observer.OnControlState(domain.ControlState{Download: false, Cancel: false})
				return domain.ErrCancelled
			}
		case domain.FetchFinished:
			if p.Filename != "" {
				filename = p.Filename
			}
			observer.OnProgress(domain.ProgressEvent{Phase: domain.PhaseProcessing, Percent: 100, Message: MsgProcessing})
			observer.OnStatus(MsgProcessing)
		}
		return nil
	}

	outputPath, runErr = c.fetcher.Fetch(c.ctx, req, hook)
	if runErr == nil {
		c.events.LogDownloadEvent("fetch finished",
			zap.String("id", record.ID),
			zap.String("path", outputPath))

		if req.Mode == domain.ModeVideo && outputPath != "" {
			runErr = c.transcode(req, observer, record, outputPath)
		}
	}

	if runErr != nil {
		c.handleFailure(observer, record, filename, runErr)
		return
	}

	record.MarkCompleted(outputPath)
	c.setState(domain.StateDone)
	observer.OnProgress(domain.ProgressEvent{Phase: domain.PhaseDone, Percent: 100, Message: MsgDone})
	observer.OnStatus(MsgDone)
}

func (c *DownloadController) transcode(req domain.DownloadRequest, observer domain.Observer, record *domain.DownloadRecord, path string) error {
	if c.cancelFlag.Load() {
		c.events.LogDownloadEvent("transcode skipped",
			zap.String("id", record.ID),
			zap.String("reason", "cancellation requested after fetch"))
		return nil
	}

	encoder := domain.CPUEncoder
	if c.encoders != nil {
		encoder = c.encoders.Current()
	}
	record.Encoder = encoder.Encoder

	c.advance(domain.StateTranscoding)
	observer.OnProgress(domain.ProgressEvent{Phase: domain.PhaseTranscoding, Percent: 100, Message: MsgTranscoding})
	observer.OnStatus(MsgTranscoding)
	c.events.LogDownloadEvent("transcode started",
		zap.String("id", record.ID),
		zap.String("path", path),
		zap.String("encoder", encoder.Encoder))

	if err := c.processor.EnsureCompatible(c.ctx, path, encoder); err != nil {
		return err
	}

	c.events.LogDownloadEvent("transcode finished", zap.String("id", record.ID), zap.String("path", path))
	return nil
}

func (c *DownloadController) handleFailure(observer domain.Observer, record *domain.DownloadRecord, filename string, err error) {
	cancelled := c.cancelFlag.Load() || errors.Is(err, domain.ErrCancelled)
	if cancelled {
		c.setState(domain.StateCancelling)
		c.cleanupPartial(observer, filename)
	}

	classified := Classify(err)
	observer.OnStatus(classified.DisplayText)

	if classified.Category == domain.ErrorCancelled {
		record.MarkCancelled()
		c.events.LogDownloadEvent("download cancelled", zap.String("id", record.ID))
	} else {
		record.MarkFailed(classified)
		c.events.LogDownloadEvent("download failed",
			zap.String("id", record.ID),
			zap.String("category", string(classified.Category)))
		c.events.LogAppError("download failed",
			zap.String("id", record.ID),
			zap.String("category", string(classified.Category)),
			zap.Error(err))
	}
	c.setState(domain.StateFailed)
}

// cleanupPartial removes the engine's in-progress file for the last
// filename the hook saw. A missing file is not an error.
func (c *DownloadController) cleanupPartial(observer domain.Observer, filename string) {
	if filename == "" {
		return
	}
	partFile := filename + ".part"
	if err := c.removeFile(partFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.logger.Warn("Could not delete temp file", zap.String("path", partFile), zap.Error(err))
		observer.OnStatus(fmt.Sprintf("Warning: Could not delete temp file: %v", err))
	}
}

func (c *DownloadController) finalize(req domain.DownloadRequest, record *domain.DownloadRecord, runErr error) {
	if !record.IsTerminal() {
		record.MarkCompleted("")
	}

	if c.history != nil {
		if err := c.history.Update(record); err != nil {
			c.logger.Warn("Failed to update history record", zap.String("id", record.ID), zap.Error(err))
		}
	}

	c.logger.Info("Download finished",
		zap.String("id", record.ID),
		zap.String("status", string(record.Status)))
	if record.Status == domain.RecordCompleted {
		c.events.LogDownloadEvent("download done",
			zap.String("id", record.ID),
			zap.String("path", record.FilePath))
	}

	if c.notifier == nil {
		return
	}
	switch record.Status {
	case domain.RecordCompleted:
		c.notifier.NotifyDownloadCompleted(req.URL, req.Mode)
	case domain.RecordCancelled:
		c.notifier.NotifyDownloadCancelled(req.URL, req.Mode)
	case domain.RecordFailed:
		reason := record.ErrorMessage
		if reason == "" && runErr != nil {
			reason = runErr.Error()
		}
		c.notifier.NotifyDownloadFailed(req.URL, req.Mode, reason)
	}
}
