package services

import (
	"os"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"Musebox/internal/config"
	"Musebox/internal/helpers"
	"Musebox/internal/store"
)

// Janitor periodically removes metadata records whose file no longer
// exists under the storage root. Directory deletions intentionally leave
// descendant keys behind; this sweep is where they get cleaned up.
type Janitor struct {
	metaStore     store.MetaStore
	configuration *config.Configuration
	logService    LogService
	cleaning      bool
	mutex         sync.Mutex
	cron          *cron.Cron
}

func NewJanitorService(
	metaStore store.MetaStore,
	logService LogService,
	configuration *config.Configuration,
) *Janitor {
	return &Janitor{
		metaStore:     metaStore,
		logService:    logService,
		configuration: configuration,
		cleaning:      false,
		mutex:         sync.Mutex{},
		cron:          cron.New(),
	}
}

func (j *Janitor) StartCleanCycle() {
	if !j.configuration.Janitor.Enabled {
		return
	}
	j.logService.Log.Debug("starting metadata sweep job")

	schedule := j.configuration.Janitor.Schedule
	_, err := j.cron.AddFunc(schedule, func() {
		j.mutex.Lock()
		if j.cleaning {
			j.mutex.Unlock()
			return
		}
		j.cleaning = true
		j.mutex.Unlock()

		defer func() {
			j.mutex.Lock()
			j.cleaning = false
			j.mutex.Unlock()
		}()
		j.sweep()
	})
	if err != nil {
		j.logService.Log.WithFields(logrus.Fields{
			"job":   "sweep",
			"error": err.Error(),
		}).Error("Failed to schedule metadata sweep")
		return
	}
	j.cron.Start()
}

func (j *Janitor) ForceSweep() error {
	j.mutex.Lock()
	if j.cleaning {
		j.mutex.Unlock()
		return ErrBusy
	}
	j.cleaning = true
	j.mutex.Unlock()
	defer func() {
		j.mutex.Lock()
		j.cleaning = false
		j.mutex.Unlock()
	}()
	j.sweep()
	return nil
}

func (j *Janitor) Stop() {
	j.cron.Stop()
}

func (j *Janitor) IsCleaning() bool {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	return j.cleaning
}

func (j *Janitor) sweep() {
	records, err := j.metaStore.All()
	if err != nil {
		j.logService.Log.WithFields(logrus.Fields{
			"job":   "sweep",
			"error": err.Error(),
		}).Error("Failed to read metadata")
		return
	}

	var stale []string
	for key := range records {
		abs, err := helpers.WithinRoot(j.configuration.Storage.LoraPath, key)
		if err != nil {
			stale = append(stale, key)
			continue
		}
		if _, err := os.Stat(abs); os.IsNotExist(err) {
			stale = append(stale, key)
		}
	}
	if len(stale) == 0 {
		return
	}

	if err := j.metaStore.DeletePaths(stale); err != nil {
		j.logService.Log.WithFields(logrus.Fields{
			"job":   "sweep",
			"error": err.Error(),
		}).Error("Failed to delete stale metadata")
		return
	}
	j.logService.Log.WithFields(logrus.Fields{
		"job":   "sweep",
		"count": len(stale),
	}).Info("removed stale metadata records")
}
