package testing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/player"
	"github.com/desertthunder/ytplay/internal/services"
	"github.com/desertthunder/ytplay/internal/shared"
)

// FakeOrigin is an in-memory [services.ContentOrigin] that counts calls and tracks concurrency.
//
// Unknown keys yield [shared.ErrNotFound]. Set Gate to hold every fetch until it is closed.
type FakeOrigin struct {
	Delay time.Duration
	Gate  chan struct{}

	mu          sync.Mutex
	payloads    map[models.ContentKey]json.RawMessage
	errs        map[models.ContentKey]error
	calls       map[models.ContentKey]int
	inFlight    int
	maxInFlight int
}

var _ services.ContentOrigin = (*FakeOrigin)(nil)

func NewFakeOrigin() *FakeOrigin {
	return &FakeOrigin{
		payloads: make(map[models.ContentKey]json.RawMessage),
		errs:     make(map[models.ContentKey]error),
		calls:    make(map[models.ContentKey]int),
	}
}

// Set registers a payload for key.
func (f *FakeOrigin) Set(key models.ContentKey, payload string) *FakeOrigin {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads[key] = json.RawMessage(payload)
	return f
}

// Fail makes every fetch of key return err.
func (f *FakeOrigin) Fail(key models.ContentKey, err error) *FakeOrigin {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[key] = err
	return f
}

func (f *FakeOrigin) Fetch(ctx context.Context, key models.ContentKey) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls[key]++
	f.inFlight++
	f.maxInFlight = max(f.maxInFlight, f.inFlight)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	payload, ok := f.payloads[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, key)
	}
	return payload, nil
}

// Calls returns how many times key was fetched.
func (f *FakeOrigin) Calls(key models.ContentKey) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

// TotalCalls returns the number of fetches across all keys.
func (f *FakeOrigin) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// MaxInFlight returns the highest number of concurrent fetches observed.
func (f *FakeOrigin) MaxInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}

// FakeStore is an in-memory durable tier keyed by content hash.
type FakeStore struct {
	TTL    time.Duration
	GetErr error
	PutErr error

	mu        sync.Mutex
	entries   map[string]*models.CacheEntry
	getCalls  int
	batchGets [][]string
	puts      []models.ContentKey
}

func NewFakeStore() *FakeStore {
	return &FakeStore{TTL: time.Hour, entries: make(map[string]*models.CacheEntry)}
}

// Seed stores payload for key with the given ttl. A negative ttl seeds an expired entry.
func (f *FakeStore) Seed(key models.ContentKey, payload string, ttl time.Duration) *FakeStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key.Hash()] = models.NewCacheEntry(key, []byte(payload), ttl)
	return f
}

func (f *FakeStore) Get(hashedKey string) (*models.CacheEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	entry, ok := f.entries[hashedKey]
	if !ok || entry.Expired(time.Now()) {
		return nil, nil
	}
	return entry, nil
}

func (f *FakeStore) BatchGet(hashedKeys []string) (map[string]*models.CacheEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchGets = append(f.batchGets, append([]string(nil), hashedKeys...))
	if f.GetErr != nil {
		return nil, f.GetErr
	}

	now := time.Now()
	out := make(map[string]*models.CacheEntry)
	for _, h := range hashedKeys {
		if entry, ok := f.entries[h]; ok && !entry.Expired(now) {
			out[h] = entry
		}
	}
	return out, nil
}

func (f *FakeStore) Put(key models.ContentKey, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, key)
	if f.PutErr != nil {
		return f.PutErr
	}
	f.entries[key.Hash()] = models.NewCacheEntry(key, data, f.TTL)
	return nil
}

// GetCalls returns the number of single-key reads.
func (f *FakeStore) GetCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

// BatchGets returns the key sets of every batch read, in order.
func (f *FakeStore) BatchGets() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.batchGets...)
}

// Puts returns every written key, in order.
func (f *FakeStore) Puts() []models.ContentKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ContentKey(nil), f.puts...)
}

// Has reports whether a live entry exists for key.
func (f *FakeStore) Has(key models.ContentKey) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[key.Hash()]
	return ok && !entry.Expired(time.Now())
}

// FakeResolver is a [services.MetadataResolver] backed by a map. Unknown ids fail with [shared.ErrNotFound].
type FakeResolver struct {
	Delay time.Duration
	Gate  chan struct{}

	mu    sync.Mutex
	meta  map[string]services.Metadata
	calls int
}

var _ services.MetadataResolver = (*FakeResolver)(nil)

func NewFakeResolver() *FakeResolver {
	return &FakeResolver{meta: make(map[string]services.Metadata)}
}

// Set registers the metadata returned for videoID.
func (f *FakeResolver) Set(videoID, title, author string) *FakeResolver {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meta[videoID] = services.Metadata{Title: title, Author: author}
	return f
}

func (f *FakeResolver) Resolve(ctx context.Context, videoID string) (*services.Metadata, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meta[videoID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, videoID)
	}
	return &m, nil
}

// Calls returns the number of Resolve invocations.
func (f *FakeResolver) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// FakePlayer records adapter commands and serves scripted getter values.
//
// It mirrors the [player.Adapter] method set so sessions can run without a surface.
type FakePlayer struct {
	mu          sync.Mutex
	commands    []string
	memberIDs   []string
	memberPolls int
	revealAfter int
	nativeIndex int
	currentTime float64
	duration    float64
	state       player.State
	volume      int
}

func NewFakePlayer() *FakePlayer {
	return &FakePlayer{nativeIndex: -1, currentTime: player.UnknownTime, duration: player.UnknownTime, state: player.StateUnknown}
}

func (f *FakePlayer) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, fmt.Sprintf(format, args...))
}

func (f *FakePlayer) LoadTrack(videoID string) { f.record("load:%s", videoID) }
func (f *FakePlayer) LoadNativePlaylist(playlistID string, start int) {
	f.record("load_native:%s:%d", playlistID, start)
}
func (f *FakePlayer) PlayAt(index int)     { f.record("play_at:%d", index) }
func (f *FakePlayer) Next()                { f.record("next") }
func (f *FakePlayer) Previous()            { f.record("previous") }
func (f *FakePlayer) Play()                { f.record("play") }
func (f *FakePlayer) Pause()               { f.record("pause") }
func (f *FakePlayer) Stop()                { f.record("stop") }
func (f *FakePlayer) Seek(seconds float64) { f.record("seek:%g", seconds) }
func (f *FakePlayer) Mute()                { f.record("mute") }
func (f *FakePlayer) Unmute()              { f.record("unmute") }

func (f *FakePlayer) SetVolume(volume int) {
	f.mu.Lock()
	f.volume = player.ClampVolume(volume)
	f.mu.Unlock()
	f.record("volume:%d", volume)
}

// NativeMemberIDs returns nil until it has been polled more times than the reveal threshold.
func (f *FakePlayer) NativeMemberIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memberPolls++
	if f.memberIDs == nil || f.memberPolls <= f.revealAfter {
		return nil
	}
	return append([]string(nil), f.memberIDs...)
}

func (f *FakePlayer) NativeIndex() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nativeIndex
}

func (f *FakePlayer) CurrentTime() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentTime
}

func (f *FakePlayer) Duration() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration
}

func (f *FakePlayer) State() player.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// SetMembers makes ids visible to NativeMemberIDs after revealAfter empty polls.
func (f *FakePlayer) SetMembers(ids []string, revealAfter int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memberIDs = ids
	f.revealAfter = revealAfter
	f.memberPolls = 0
}

// MemberPolls returns how many times NativeMemberIDs was called since the last SetMembers.
func (f *FakePlayer) MemberPolls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.memberPolls
}

func (f *FakePlayer) SetNativeIndex(i int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nativeIndex = i
}

// SetClock sets the values returned by CurrentTime and Duration.
func (f *FakePlayer) SetClock(current, duration float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentTime = current
	f.duration = duration
}

func (f *FakePlayer) SetState(s player.State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = s
}

// Commands returns recorded commands in order.
func (f *FakePlayer) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

// LastCommand returns the most recent command, or "".
func (f *FakePlayer) LastCommand() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.commands) == 0 {
		return ""
	}
	return f.commands[len(f.commands)-1]
}

// Reset clears recorded commands.
func (f *FakePlayer) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = nil
}

func (f *FakePlayer) Volume() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume
}
