package engine

import (
	"sync"
	"testing"

	"github.com/pokerpad/pokerpad/internal/credstore"
	"github.com/pokerpad/pokerpad/internal/state"
	"github.com/pokerpad/pokerpad/internal/transport"
)

func TestCreateRoomAndJoinContract(t *testing.T) {
	ft := newFakeTransport()
	eng := New(ft, credstore.NewMemory())
	defer eng.Close()

	if err := eng.Connect("alice"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	var results []transport.Result
	eng.CreateRoomAndJoin("Sprint 12", "effort", func(r transport.Result) {
		results = append(results, r)
	})

	names := ft.requestNames()
	if len(names) != 1 || names[0] != requestCreateRoom {
		t.Fatalf("requests = %v, want [create room]", names)
	}

	// Server acknowledges the creation with the new room's ID; the
	// join must follow immediately.
	ft.requests[0].ack(transport.Result{Type: "OK", RoomID: "R1"})

	names = ft.requestNames()
	if len(names) != 2 || names[1] != requestJoin {
		t.Fatalf("requests after create ack = %v, want [create room join]", names)
	}
	if roomID, ok := ft.requests[1].data.(string); !ok || roomID != "R1" {
		t.Errorf("join payload = %#v, want \"R1\"", ft.requests[1].data)
	}

	ft.requests[1].ack(transport.OKResult())
	if len(results) != 1 || !results[0].OK() {
		t.Errorf("caller results = %+v, want single OK for the join", results)
	}
}

func TestCreateRoomAndJoinStopsOnError(t *testing.T) {
	ft := newFakeTransport()
	eng := New(ft, credstore.NewMemory())
	defer eng.Close()

	if err := eng.Connect("alice"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	var got transport.Result
	eng.CreateRoomAndJoin("Sprint 12", "effort", func(r transport.Result) { got = r })
	ft.requests[0].ack(transport.ErrorResult("room name taken"))

	if names := ft.requestNames(); len(names) != 1 {
		t.Fatalf("join issued despite failed create: %v", names)
	}
	if got.OK() || got.Error != "room name taken" {
		t.Errorf("caller result = %+v, want the create error", got)
	}
}

func TestCreateRoomRejectsUnknownGameKind(t *testing.T) {
	ft := newFakeTransport()
	eng := New(ft, credstore.NewMemory())
	defer eng.Close()

	var got transport.Result
	eng.CreateRoom("Sprint", "chess", func(r transport.Result) { got = r })

	if got.OK() || got.Error == "" {
		t.Errorf("result = %+v, want error for unknown game kind", got)
	}
	if names := ft.requestNames(); len(names) != 0 {
		t.Errorf("request emitted for invalid game kind: %v", names)
	}
}

func TestCommandErrorSurfacesAsNotice(t *testing.T) {
	ft := newFakeTransport()
	var mu sync.Mutex
	var notices []string
	eng := New(ft, credstore.NewMemory(), WithNoticeFunc(func(msg string) {
		mu.Lock()
		notices = append(notices, msg)
		mu.Unlock()
	}))
	defer eng.Close()

	if err := eng.Connect("alice"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	eng.Vote("8", "R1", nil)
	ft.requests[0].ack(transport.ErrorResult("the current round is not done"))

	mu.Lock()
	defer mu.Unlock()
	if len(notices) != 1 || notices[0] != "the current round is not done" {
		t.Errorf("notices = %v, want the ack error", notices)
	}
}

func TestUpdateUserSendsProfile(t *testing.T) {
	ft := newFakeTransport()
	eng := New(ft, credstore.NewMemory())
	defer eng.Close()

	if err := eng.Connect("alice"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	eng.UpdateUser(state.User{UserID: "u1", Name: "Alice", Email: "a@example.com"}, nil)

	if names := ft.requestNames(); len(names) != 1 || names[0] != requestUpdateUser {
		t.Fatalf("requests = %v, want [update user]", names)
	}
	user, ok := ft.requests[0].data.(state.User)
	if !ok || user.Name != "Alice" {
		t.Errorf("payload = %#v, want the profile", ft.requests[0].data)
	}
}

func TestNewRoundCarriesOptions(t *testing.T) {
	ft := newFakeTransport()
	eng := New(ft, credstore.NewMemory())
	defer eng.Close()

	if err := eng.Connect("alice"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	eng.NewRound("R1", RoundOptions{Name: "Round 3", Anonymous: true, MaxVotes: 3}, nil)

	if names := ft.requestNames(); len(names) != 1 || names[0] != requestNewRound {
		t.Fatalf("requests = %v, want [new round]", names)
	}
}
