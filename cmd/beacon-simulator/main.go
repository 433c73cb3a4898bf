// Command beacon-simulator drives the SDK against a running collector:
// synthetic events, super properties, and background/foreground cycles
// including one that crosses the session boundary.
package main

import (
	"log"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/AtRiskMedia/beacon-go/pkg/beacon"
	"github.com/AtRiskMedia/beacon-go/pkg/config"
)

var eventCatalog = []string{
	"screenView",
	"buttonTap",
	"search",
	"addToCart",
	"purchase",
	"share",
}

// simClock is a wall clock the simulator can push forward, so the session
// boundary demonstration does not need a real 60-second wait.
type simClock struct {
	mu  sync.Mutex
	now time.Time
}

func newSimClock() *simClock { return &simClock{now: time.Now()} }

func (c *simClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *simClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func main() {
	faker := gofakeit.New(uint64(config.SimulatorSeed))
	clock := newSimClock()

	store, err := beacon.NewFileStore(".beacon-simulator")
	if err != nil {
		log.Fatalf("simulator: create state store: %v", err)
	}

	tracker, err := beacon.New(beacon.Config{
		ProjectID:         config.CollectorProjectID,
		ProjectToken:      config.CollectorProjectToken,
		Endpoint:          config.SimulatorEndpoint,
		TrackUniqueEvents: true,
		Debug:             config.SimulatorDebug,
		AppVersion:        "2.3.1",
		AppInstallDate:    time.Now().AddDate(0, -2, 0),
		Store:             store,
		Clock:             clock.Now,
	})
	if err != nil {
		log.Fatalf("simulator: create tracker: %v", err)
	}

	tracker.SetSuperProperties(beacon.NewProperties().
		Set("plan", beacon.String(faker.RandomString([]string{"free", "pro", "team"}))).
		Set("experimentGroup", beacon.String(faker.RandomString([]string{"control", "variantA", "variantB"}))))

	log.Printf("simulator: tracking %d events against %s", config.SimulatorEventCount, config.SimulatorEndpoint)

	for i := 0; i < config.SimulatorEventCount; i++ {
		trackOne(tracker, faker)
		clock.Advance(time.Duration(faker.Number(1, 20)) * time.Second)

		// A third of the way in, briefly background without crossing the
		// session threshold; the session resumes silently.
		if i == config.SimulatorEventCount/3 {
			tracker.NotifyBackground()
			clock.Advance(30 * time.Second)
			tracker.NotifyForeground()
			log.Println("simulator: short background, session resumed")
		}

		// Two thirds in, stay backgrounded past the threshold; a session
		// boundary fires and super properties reset.
		if i == (2*config.SimulatorEventCount)/3 {
			tracker.NotifyBackground()
			clock.Advance(2 * time.Minute)
			tracker.NotifyForeground()
			log.Println("simulator: long background, new session started")
			tracker.SetSuperProperties(beacon.NewProperties().
				Set("plan", beacon.String("pro")))
		}
	}

	if err := tracker.Close(); err != nil {
		log.Printf("simulator: close: %v", err)
	}
	log.Println("simulator: done")
}

func trackOne(tracker *beacon.Tracker, faker *gofakeit.Faker) {
	name := eventCatalog[faker.Number(0, len(eventCatalog)-1)]
	props := beacon.NewProperties().
		Set("screen", beacon.String(faker.RandomString([]string{"home", "catalog", "detail", "cart", "profile"}))).
		Set("durationMs", beacon.Number(float64(faker.Number(50, 5000))))

	if name == "purchase" {
		props.Set("amount", beacon.Number(faker.Price(1, 200))).
			Set("currency", beacon.String(faker.CurrencyShort()))
	}
	if name == "search" {
		props.Set("query", beacon.String(faker.ProductName()))
	}

	tracker.Track(name, props)
}
