package main

import (
	"fmt"
	r "math/rand"
	"os"
	"time"

	"go-mm/config"
	"go-mm/pkg/allocator"
	"go-mm/pkg/memlib"
	"go-mm/util/logger"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var seed = time.Now().UnixMilli()
var rand = r.New(r.NewSource(seed))

func main() {
	configs := config.New()
	if err := logger.SetLevel(configs.LogLevel); err != nil {
		fatal(err)
	}

	arena, err := memlib.Open(configs.ArenaConfig.Options())
	if err != nil {
		fatal(err)
	}
	defer func() {
		if err := arena.Close(); err != nil {
			logger.L.WithError(err).Error("failed to release arena")
		}
	}()

	a, err := allocator.New(arena, configs.AllocatorConfig.Options())
	if err != nil {
		fatal(err)
	}

	if err := exercise(a, 1000); err != nil {
		fatal(err)
	}

	if err := a.Print(os.Stdout); err != nil {
		fatal(err)
	}
	logger.L.WithFields(logrus.Fields{
		"seed":     seed,
		"heapSize": a.HeapSize(),
	}).Info("heap consistent")
}

// exercise runs a random mix of allocations, frees and resizes and checks
// the heap after every step.
func exercise(a *allocator.Allocator, steps int) error {
	live := []allocator.Ptr{}
	for i := 0; i < steps; i++ {
		var err error
		switch op := rand.Intn(4); {
		case op < 2 || len(live) == 0:
			var p allocator.Ptr
			if p, err = a.Alloc(uint32(1 + rand.Intn(4096))); err == nil {
				live = append(live, p)
			}
		case op == 2:
			idx := rand.Intn(len(live))
			a.Free(live[idx])
			live = append(live[:idx], live[idx+1:]...)
		default:
			idx := rand.Intn(len(live))
			var p allocator.Ptr
			if p, err = a.Realloc(live[idx], uint32(1+rand.Intn(8192))); err == nil {
				live[idx] = p
			}
		}
		if err != nil {
			return errors.Wrapf(err, "step %d", i)
		}
		if err := a.Check(); err != nil {
			return errors.Wrapf(err, "step %d", i)
		}
	}
	return nil
}

func fatal(val interface{}) {
	fmt.Println(val)
	os.Exit(1)
}
