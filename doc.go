// Package aquarium is the composition root of the shared planner.
//
// A planner room is one JSON document (a calendar of days with tasks, a mood
// and a diary entry, plus a vision board of images) kept in a document store
// and shared by everyone who knows the room secret. A Session subscribes to
// the room, keeps a local cache that every notification replaces, applies
// user actions to it and writes the result back.
//
// Stores:
//
//   - **fs** (default): one file per room, atomic writes, optional git history.
//   - **sqlite**: one row per room in a local database.
//   - **remote**: a room server (aquariumd) over HTTP and websockets.
//   - **memory**: in-process, for tests and demos.
//
// Usage:
//
//	sess, err := aquarium.New("./planner",
//		aquarium.WithAutoInit(true),
//		aquarium.WithLogger(logger),
//	)
//	if err := sess.Open(ctx, "our-secret-room"); err != nil {
//		return err
//	}
//	<-sess.Ready()
//	_, err = sess.Dispatch(ctx, planner.AddTask("Buy food"))
package aquarium
