package lsp

import (
	"strconv"
	"sync"
)

// ProgressReporter sends work done progress for long running commands.
// Reports for one token are serialized.
type ProgressReporter struct {
	request func(method string, params interface{}) error
	notify  func(method string, params interface{}) error
	mu      sync.Mutex
}

// NewProgressReporter creates a reporter that creates tokens with request
// and sends progress with notify.
func NewProgressReporter(request, notify func(method string, params interface{}) error) *ProgressReporter {
	return &ProgressReporter{request: request, notify: notify}
}

func (p *ProgressReporter) progress(token string, value interface{}) error {
	return p.notify(MethodProgress, ProgressParams{Token: token, Value: value})
}

// Begin creates token on the client and starts a report for total items.
func (p *ProgressReporter) Begin(token, title string, total int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.request(MethodWindowWorkDoneProgressCreate, WorkDoneProgressCreateParams{Token: token}); err != nil {
		return err
	}
	begin := WorkDoneProgressBegin{Kind: "begin", Title: title}
	if total > 0 {
		begin.Message = "0/" + strconv.Itoa(total)
	}
	return p.progress(token, begin)
}

// Report sends that done of total items are finished.
func (p *ProgressReporter) Report(token, message string, done, total int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	report := WorkDoneProgressReport{Kind: "report", Message: message}
	if total > 0 {
		report.Percentage = done * 100 / total
	}
	return p.progress(token, report)
}

// End completes the report for token.
func (p *ProgressReporter) End(token, message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress(token, WorkDoneProgressEnd{Kind: "end", Message: message})
}
