// Command osalsim is a demo root task wiring ApplicationStartup to a
// couple of tasks, a queue, and a periodic timer, analogous to the
// teacher's cmd/io REPL binary but driving the object-table core instead
// of a language VM.
package main

import (
	"fmt"
	"time"

	osal "github.com/zakdam/osal-1"
	"github.com/zakdam/osal-1/config"
	"github.com/zakdam/osal-1/errkind"
	"github.com/zakdam/osal-1/internal/obslog"
	"github.com/zakdam/osal-1/port/simport"
)

func main() {
	log := obslog.Default()

	p := simport.New()
	api, err := osal.Init(p, config.Default())
	if err != nil {
		log.Error("init failed", "error", err)
		return
	}

	if k := api.Boot(applicationStartup); k != errkind.Success {
		log.Error("boot failed", "kind", k)
	}

	log.Info("idle loop returned, shutting down")
}

// applicationStartup registers a producer task, a consumer task, a queue
// between them, and a periodic heartbeat timer, then returns -- exactly
// the contract spec §6 describes for ApplicationStartup.
func applicationStartup(api *osal.API) errkind.Kind {
	log := obslog.Named("demo")

	var queueID int
	if k := api.Queues.Create(&queueID, "ticks", 8, 8); k != errkind.Success {
		return k
	}

	var heartbeatID int
	var accuracy uint32
	beat := func(id int) {
		log.Info("heartbeat", "timer", id, "tick", api.GetTickCount())
	}
	if k := api.Timers.Create(&heartbeatID, "heartbeat", &accuracy, beat); k != errkind.Success {
		return k
	}
	if k := api.Timers.Set(heartbeatID, 10_000, 5_000); k != errkind.Success {
		return k
	}

	var producerID int
	producer := func() {
		api.Tasks.Register()
		for i := 0; i < 3; i++ {
			msg := []byte(fmt.Sprintf("tick-%03d", i))
			if k := api.Queues.Put(queueID, msg); k != errkind.Success {
				log.Warn("put failed", "kind", k)
			}
			api.Port.Delay(50 * time.Millisecond)
		}
	}
	if k := api.Tasks.Create(&producerID, "producer", producer, 4096, 100); k != errkind.Success {
		return k
	}

	var consumerID int
	consumer := func() {
		api.Tasks.Register()
		buf := make([]byte, 8)
		var n uint32
		for i := 0; i < 3; i++ {
			if k := api.Queues.Get(queueID, buf, 1000, &n); k == errkind.Success {
				log.Info("consumed", "msg", string(buf[:n]))
			}
		}
		api.ApplicationShutdown()
	}
	if k := api.Tasks.Create(&consumerID, "consumer", consumer, 4096, 100); k != errkind.Success {
		return k
	}

	return errkind.Success
}
