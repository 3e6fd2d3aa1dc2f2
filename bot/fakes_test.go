package bot

import (
	"context"
	"sync"

	"github.com/ARYAN-9099/whatsapp-bot-public/reminder"
	"github.com/ARYAN-9099/whatsapp-bot-public/types"
)

type sent struct {
	To   string
	Body string
}

type fakeSender struct {
	mu      sync.Mutex
	texts   []sent
	images  []sent
	reads   []string
	failFor map[string]error
}

func (f *fakeSender) SendText(_ context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[to]; err != nil {
		return err
	}
	f.texts = append(f.texts, sent{To: to, Body: body})
	return nil
}

func (f *fakeSender) SendImage(_ context.Context, to, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images = append(f.images, sent{To: to, Body: link})
	return nil
}

func (f *fakeSender) MarkRead(_ context.Context, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, messageID)
	return nil
}

func (f *fakeSender) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1].Body
}

func (f *fakeSender) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reads)
}

type fakeChat struct {
	answer string
	err    error
	asked  []string
}

func (f *fakeChat) Ask(_ context.Context, prompt string) (string, error) {
	f.asked = append(f.asked, prompt)
	return f.answer, f.err
}

type fakeSearch struct {
	links []string
	err   error
}

func (f *fakeSearch) Search(context.Context, string) ([]string, error) {
	return f.links, f.err
}

type fakeGenerator struct {
	image []byte
	err   error
}

func (f *fakeGenerator) Generate(context.Context, string) ([]byte, error) {
	return f.image, f.err
}

type fakeUploader struct {
	link string
	err  error
}

func (f *fakeUploader) Upload(context.Context, []byte) (string, error) {
	return f.link, f.err
}

type fakeConverter struct {
	link string
	err  error
}

func (f *fakeConverter) Convert(context.Context, string) (string, error) {
	return f.link, f.err
}

type fakeScheduler struct {
	outcome types.Outcome
	got     []types.ReminderRequest
}

func (f *fakeScheduler) ScheduleOnce(req types.ReminderRequest) (types.Outcome, reminder.Handle) {
	f.got = append(f.got, req)
	return f.outcome, reminder.Handle{}
}
