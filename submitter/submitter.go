package submitter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"ibtbridge/status"
	"ibtbridge/types"

	"github.com/go-kit/kit/metrics"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Sender is the connected wallet: it signs and broadcasts a call and
// waits for it to land.
type Sender interface {
	Send(ctx context.Context, desc types.CallDescriptor) (string, error)
	Wait(ctx context.Context, txHash string) (types.Receipt, error)
}

// Journal persists operations. previous is the phase the operation
// was stored under, empty for a new operation.
type Journal interface {
	Save(op types.PendingOperation, previous types.Phase) error
}

type ConfirmedHook func(op types.PendingOperation, receipt types.Receipt)

var phaseRank = map[types.Phase]int{
	types.PhaseIdle:       0,
	types.PhaseValidating: 1,
	types.PhaseSubmitted:  2,
	types.PhaseConfirmed:  3,
	types.PhaseFailed:     3,
}

// Submitter runs the operations of one panel, at most one in flight
// per form. It never retries.
type Submitter struct {
	family         types.ChainFamily
	sender         Sender
	confirmTimeout time.Duration

	journal Journal
	counter metrics.Counter

	mu        sync.Mutex
	forms     map[string]*types.PendingOperation
	confirmed []ConfirmedHook
}

const defaultConfirmTimeout = 2 * time.Minute

func New(family types.ChainFamily, sender Sender, confirmTimeout time.Duration) *Submitter {
	if confirmTimeout <= 0 {
		confirmTimeout = defaultConfirmTimeout
	}
	return &Submitter{
		family:         family,
		sender:         sender,
		confirmTimeout: confirmTimeout,
		forms:          make(map[string]*types.PendingOperation),
	}
}

func (s *Submitter) SetJournal(j Journal) {
	s.journal = j
}

// SetCounter counts phase transitions, labelled by chain and phase.
func (s *Submitter) SetCounter(c metrics.Counter) {
	s.counter = c
}

// OnConfirmed registers a hook run after an operation is confirmed and
// before its Submission completes.
func (s *Submitter) OnConfirmed(h ConfirmedHook) {
	s.mu.Lock()
	s.confirmed = append(s.confirmed, h)
	s.mu.Unlock()
}

// Begin opens a new operation on form. A form with an operation still
// validating or submitted rejects it.
func (s *Submitter) Begin(form string, kind types.OperationKind, params map[string]string) (types.PendingOperation, error) {
	s.mu.Lock()
	if cur, ok := s.forms[form]; ok && cur.Phase.InFlight() {
		s.mu.Unlock()
		return *cur, &types.SubmissionError{Code: types.OperationInFlight, Err: fmt.Errorf("form %s already has operation %s %s", form, cur.ID, cur.Phase)}
	}

	now := time.Now().Unix()
	op := &types.PendingOperation{
		ID:        uuid.New().String(),
		Form:      form,
		Kind:      kind,
		Family:    s.family,
		Params:    copyParams(params),
		Phase:     types.PhaseValidating,
		TsCreated: now,
		TsUpdated: now,
	}
	s.forms[form] = op
	snapshot := *op
	s.mu.Unlock()

	s.record(snapshot, "")
	return snapshot, nil
}

// Fail closes an operation that never reached the network.
func (s *Submitter) Fail(id string, err error) (types.PendingOperation, error) {
	return s.transition(id, types.PhaseFailed, status.Reason(err), "")
}

// Submit sends desc for operation id and returns at once. The outcome is
// observable through the operation's phase or the returned Submission.
func (s *Submitter) Submit(ctx context.Context, id string, desc types.CallDescriptor) *Submission {
	sub := &Submission{id: id, done: make(chan struct{})}

	if _, err := s.find(id); err != nil {
		sub.finish(types.Receipt{}, err)
		return sub
	}

	// the caller's cancellation must not abort a signed transaction
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.confirmTimeout)
	go func() {
		defer cancel()
		receipt, err := s.run(runCtx, id, desc)
		sub.finish(receipt, err)
	}()
	return sub
}

func (s *Submitter) run(ctx context.Context, id string, desc types.CallDescriptor) (types.Receipt, error) {
	logger := log.WithFields(log.Fields{"operation": id, "chain": s.family.String(), "function": desc.Function})

	txHash, err := s.sender.Send(ctx, desc)
	if err != nil {
		logger.Printf("Error sending transaction: %s", err.Error())
		err = submissionError(err)
		s.transition(id, types.PhaseFailed, status.Reason(err), "")
		return types.Receipt{}, err
	}
	logger.Printf("Transaction sent: %s", txHash)
	if _, err := s.transition(id, types.PhaseSubmitted, "", txHash); err != nil {
		return types.Receipt{TxHash: txHash}, err
	}

	receipt, err := s.sender.Wait(ctx, txHash)
	if err == nil && !receipt.Success {
		err = &types.SubmissionError{Code: types.Reverted, Err: fmt.Errorf("transaction %s failed: %s", txHash, receipt.Error)}
	}
	if err != nil {
		logger.Printf("Transaction %s failed: %s", txHash, err.Error())
		err = submissionError(err)
		s.transition(id, types.PhaseFailed, status.Reason(err), txHash)
		return receipt, err
	}

	op, err := s.transition(id, types.PhaseConfirmed, "", txHash)
	if err != nil {
		return receipt, err
	}
	logger.Printf("Transaction %s confirmed in block %d", txHash, receipt.BlockNumber)

	s.mu.Lock()
	hooks := append([]ConfirmedHook(nil), s.confirmed...)
	s.mu.Unlock()
	for _, h := range hooks {
		h(op, receipt)
	}
	return receipt, nil
}

func submissionError(err error) error {
	if types.CodeOf(err) != "" {
		return err
	}
	return &types.SubmissionError{Code: types.NetworkRejected, Err: err}
}

var ErrUnknownOperation = errors.New("unknown operation")

func (s *Submitter) find(id string) (*types.PendingOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range s.forms {
		if op.ID == id {
			return op, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, id)
}

func (s *Submitter) transition(id string, phase types.Phase, message, txHash string) (types.PendingOperation, error) {
	s.mu.Lock()
	var op *types.PendingOperation
	for _, candidate := range s.forms {
		if candidate.ID == id {
			op = candidate
			break
		}
	}
	if op == nil {
		s.mu.Unlock()
		return types.PendingOperation{}, fmt.Errorf("%w: %s", ErrUnknownOperation, id)
	}
	if op.Phase.Terminal() || phaseRank[phase] <= phaseRank[op.Phase] {
		snapshot := *op
		s.mu.Unlock()
		return snapshot, fmt.Errorf("operation %s cannot move from %s to %s", id, snapshot.Phase, phase)
	}

	previous := op.Phase
	op.Phase = phase
	op.Message = message
	if txHash != "" {
		op.TxHash = txHash
	}
	op.TsUpdated = time.Now().Unix()
	snapshot := *op
	s.mu.Unlock()

	s.record(snapshot, previous)
	return snapshot, nil
}

func (s *Submitter) record(op types.PendingOperation, previous types.Phase) {
	if s.counter != nil {
		s.counter.With("chain_name", s.family.String(), "option", string(op.Phase)).Add(1)
	}
	if s.journal == nil {
		return
	}
	if err := s.journal.Save(op, previous); err != nil {
		log.WithField("operation", op.ID).Printf("Error journaling operation: %s", err.Error())
	}
}

// Operation returns the latest operation of form.
func (s *Submitter) Operation(form string) (types.PendingOperation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.forms[form]
	if !ok {
		return types.PendingOperation{}, false
	}
	return *op, true
}

// Operations returns the latest operation of every form, ordered by form.
func (s *Submitter) Operations() []types.PendingOperation {
	s.mu.Lock()
	out := make([]types.PendingOperation, 0, len(s.forms))
	for _, op := range s.forms {
		out = append(out, *op)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Form < out[j].Form })
	return out
}

// Reset forgets every terminal operation. In flight operations are kept
// so their outcome is still reported.
func (s *Submitter) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for form, op := range s.forms {
		if !op.Phase.InFlight() {
			delete(s.forms, form)
		}
	}
}

func copyParams(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}

// Submission is the handle of one sent operation.
type Submission struct {
	id      string
	done    chan struct{}
	receipt types.Receipt
	err     error
}

func (s *Submission) finish(receipt types.Receipt, err error) {
	s.receipt = receipt
	s.err = err
	close(s.done)
}

func (s *Submission) ID() string { return s.id }

func (s *Submission) Done() <-chan struct{} { return s.done }

// Wait blocks until the operation is confirmed or failed, or ctx is done.
func (s *Submission) Wait(ctx context.Context) (types.Receipt, error) {
	select {
	case <-s.done:
		return s.receipt, s.err
	case <-ctx.Done():
		return types.Receipt{}, ctx.Err()
	}
}
