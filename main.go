package main

import (
	"log"
)

// Build details injected with -ldflags "-X main.GitCommit=... -X main.GitTag=... -X main.BuildTime=...".
var (
	GitCommit string
	GitTag    string
	BuildTime string
)

//	@title			Books Store API
//	@version		1.0
//	@description	CRUD api over a books document store.
//	@BasePath		/
func main() {
	app, err := NewApp()
	if err != nil {
		log.Fatal("application failed to initialized: ", err)
	}
	err = app.Run()
	if err != nil {
		log.Fatal("application exited. check logs for more details.", err)
	}
}
