package aquarium_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aretw0/aquarium"
	"github.com/aretw0/aquarium/pkg/adapters/memory"
	"github.com/aretw0/aquarium/pkg/core"
	"github.com/aretw0/aquarium/pkg/planner"
	"github.com/aretw0/aquarium/pkg/session"
)

// Example_basic opens a room, adds a task to today and reads the stored
// document back without a session.
func Example_basic() {
	ctx := context.Background()
	store := memory.NewStore(memory.Config{})
	today := time.Date(2024, 6, 1, 9, 0, 0, 0, time.Local)

	sess, err := aquarium.New("",
		aquarium.WithStore(store),
		aquarium.WithSessionOptions(session.WithClock(func() time.Time { return today })),
	)
	if err != nil {
		log.Fatal(err)
	}

	if err := sess.Open(ctx, "our-secret-room"); err != nil {
		log.Fatal(err)
	}
	if _, err := sess.Dispatch(ctx, planner.AddTask("Buy food")); err != nil {
		log.Fatal(err)
	}
	if err := sess.Close(ctx); err != nil {
		log.Fatal(err)
	}

	room, err := aquarium.LoadRoom(ctx, store, "our-secret-room")
	if err != nil {
		log.Fatal(err)
	}
	day := room.Data.Day(core.DateKey(today))
	fmt.Printf("%s: %s (done: %v)\n", core.DateKey(today), day.Tasks[0].Text, day.Tasks[0].Completed)
	// Output:
	// 2024-06-01: Buy food (done: false)
}
