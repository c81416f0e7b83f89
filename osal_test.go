package osal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zakdam/osal-1/config"
	"github.com/zakdam/osal-1/errkind"
)

func TestInit_ConstructsAllRegistries(t *testing.T) {
	api, err := Init(newTestPort(), config.Default())
	require.NoError(t, err)
	require.NotNil(t, api.Tasks)
	require.NotNil(t, api.Queues)
	require.NotNil(t, api.BinSems)
	require.NotNil(t, api.CountSems)
	require.NotNil(t, api.Mutexes)
	require.NotNil(t, api.Timers)
}

func TestInit_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.MaxTasks = 0
	_, err := Init(newTestPort(), cfg)
	assert.Error(t, err)
}

func TestIdleLoop_UnblocksOnApplicationShutdown(t *testing.T) {
	// Spec §8: "ApplicationShutdown after IdleLoop started unblocks the
	// idle task exactly once."
	api, err := Init(newTestPort(), config.Default())
	require.NoError(t, err)

	returned := make(chan struct{})
	go func() {
		api.IdleLoop()
		close(returned)
	}()

	select {
	case <-returned:
		t.Fatal("IdleLoop returned before shutdown was requested")
	case <-time.After(20 * time.Millisecond):
	}

	require.Equal(t, errkind.Success, api.ApplicationShutdown())

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("IdleLoop never unblocked")
	}
}

func TestBoot_RunsStartupThenIdles(t *testing.T) {
	// Spec §8 scenario 6.
	api, err := Init(newTestPort(), config.Default())
	require.NoError(t, err)

	started := make(chan struct{})
	bootDone := make(chan errkind.Kind, 1)

	startup := func(a *API) errkind.Kind {
		close(started)
		go func() {
			time.Sleep(20 * time.Millisecond)
			a.ApplicationShutdown()
		}()
		return errkind.Success
	}

	go func() { bootDone <- api.Boot(startup) }()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("startup hook never ran")
	}

	select {
	case k := <-bootDone:
		assert.Equal(t, errkind.Success, k)
	case <-time.After(time.Second):
		t.Fatal("Boot never returned after shutdown")
	}
}

func TestBoot_PropagatesStartupFailure(t *testing.T) {
	api, err := Init(newTestPort(), config.Default())
	require.NoError(t, err)

	k := api.Boot(func(a *API) errkind.Kind { return errkind.KernelFailure })
	assert.Equal(t, errkind.KernelFailure, k)
}

func TestApplicationExit_InvokesOsExitWithDerivedCode(t *testing.T) {
	api, err := Init(newTestPort(), config.Default())
	require.NoError(t, err)

	var gotCode int
	called := make(chan struct{})
	orig := osExit
	osExit = func(code int) {
		gotCode = code
		close(called)
	}
	defer func() { osExit = orig }()

	api.ApplicationExit(ExitFailure)
	<-called
	assert.Equal(t, 1, gotCode)
}

func TestApplicationExit_SuccessMapsToZero(t *testing.T) {
	api, err := Init(newTestPort(), config.Default())
	require.NoError(t, err)

	var gotCode int
	called := make(chan struct{})
	orig := osExit
	osExit = func(code int) {
		gotCode = code
		close(called)
	}
	defer func() { osExit = orig }()

	api.ApplicationExit(ExitSuccess)
	<-called
	assert.Equal(t, 0, gotCode)
}

func TestDeleteAllObjects_ClearsEveryRegistry(t *testing.T) {
	api, err := Init(newTestPort(), config.Default())
	require.NoError(t, err)

	var qID, semID, msID, muID, tmID int
	require.Equal(t, errkind.Success, api.Queues.Create(&qID, "Q", 1, 4))
	require.Equal(t, errkind.Success, api.BinSems.Create(&semID, "S", 0))
	require.Equal(t, errkind.Success, api.CountSems.Create(&msID, "CS", 0, 1))
	require.Equal(t, errkind.Success, api.Mutexes.Create(&muID, "M"))
	var acc uint32
	require.Equal(t, errkind.Success, api.Timers.Create(&tmID, "T", &acc, func(int) {}))

	require.NoError(t, api.DeleteAllObjects())

	_, k := api.Queues.GetIDByName("Q")
	assert.Equal(t, errkind.NameNotFound, k)
	_, k = api.BinSems.GetIDByName("S")
	assert.Equal(t, errkind.NameNotFound, k)
	_, k = api.CountSems.GetIDByName("CS")
	assert.Equal(t, errkind.NameNotFound, k)
	_, k = api.Mutexes.GetIDByName("M")
	assert.Equal(t, errkind.NameNotFound, k)
	_, k = api.Timers.GetIDByName("T")
	assert.Equal(t, errkind.NameNotFound, k)
}

func TestClockConversions_RoundTrip(t *testing.T) {
	api, err := Init(newTestPort(), config.Default())
	require.NoError(t, err)

	ticks := api.MicrosecondsToTicks(2500) // 1000Hz port -> 1ms/tick
	assert.EqualValues(t, 2, ticks)        // floors above one tick

	us := api.TicksToMicroseconds(3)
	assert.EqualValues(t, 3000, us)
}
