package controller

import (
	"github.com/sharetube/scrollfeed/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(c.wsRequestIdMw(), c.loggerWSMw(), c.metricsWSMw())
	mux.OnError(c.handleWSError)

	wsrouter.Handle(mux, "ALIVE", c.handleAlive)

	// navigation
	wsrouter.Handle(mux, "SCROLL", c.handleScroll)

	// playback
	wsrouter.Handle(mux, "TOGGLE_PLAY", c.handleTogglePlay)
	wsrouter.Handle(mux, "SEEK", c.handleSeek)
	wsrouter.Handle(mux, "PROGRESS", c.handleProgress)

	// streaming library readiness
	wsrouter.Handle(mux, "STREAM_INITIALIZED", c.handleStreamInitialized)
	wsrouter.Handle(mux, "METADATA_LOADED", c.handleMetadataLoaded)
	wsrouter.Handle(mux, "QUALITY_CHANGED", c.handleQualityChanged)

	// engagement
	wsrouter.Handle(mux, "LIKE", c.handleLike)

	return mux
}
