package main

import (
	"fmt"

	"github.com/ljmsc/undo"
	"github.com/ljmsc/undo/slot"
)

func main() {
	storage, err := undo.Bootstrap(undo.Config{Dir: "./storage/"})
	if err != nil {
		panic(err)
	}
	defer storage.Close()

	// replay everything written after the last checkpoint
	if err := storage.Recover(nil); err != nil {
		panic(err)
	}

	session := storage.NewSession()
	// every record set must be closed before the session ends
	defer session.Exit()

	set, err := session.Create(undo.TypeTransaction, slot.Permanent)
	if err != nil {
		panic(err)
	}

	ptr, lsn, err := set.Append([]byte("my undo data"))
	if err != nil {
		panic(err)
	}
	fmt.Printf("successful wrote undo record at %s. LSN: %d \n", ptr, lsn)

	if _, err := set.Close(); err != nil {
		panic(err)
	}
	if err := storage.WAL().Sync(); err != nil {
		panic(err)
	}

	redo, err := storage.Checkpoint()
	if err != nil {
		panic(err)
	}
	fmt.Printf("checkpoint written, recovery starts at %d \n", redo)
}
