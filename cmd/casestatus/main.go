package main

import (
	"casestatus-backend/cmd/casestatus/commands"
	"casestatus-backend/lib/util/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
