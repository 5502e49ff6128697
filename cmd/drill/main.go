package main

import (
	"flag"
	"fmt"
	"log"
)

const usage = `usage: drill [-dir=<path>] [-db=<string>] [-addr=<host:port>] <command> [<args>]

Configuration flags:

   -dir        The dataset archive path, either a directory or a zip file.
               The current directory is used if this flag is not set.

   -db         The postgres connection string. The environment variable DRILL_DB is used
               if this flag is not set. A configured database takes precedence over -dir.

   -addr       The listen address for the serve command, localhost:8090 by default.

Report commands
   vers        Display the report manifest of the configured source
   dump        Write the source reports as dataset archive to a path
   load        Load a dataset archive into the db

Service commands
   serve       Serve the source reports on a websocket hub
   req         Send one request to a served hub and print the response

Other commands
   help        Display help message
   repl        Runs a read-eval-print-loop for report lookups on the source
`

var (
	dirFlag  = flag.String("dir", ".", "dataset archive path")
	dbFlag   = flag.String("db", "", "database connection string")
	addrFlag = flag.String("addr", "localhost:8090", "serve listen address")
)

func main() {
	flag.Parse()
	log.SetFlags(0)
	args := flag.Args()
	if len(args) == 0 {
		log.Printf("missing command\n\n")
		fmt.Print(usage)
		return
	}
	args = args[1:]
	var err error
	switch cmd := flag.Arg(0); cmd {
	case "vers":
		err = vers(args)
	case "dump":
		err = dump(args)
	case "load":
		err = load(args)
	case "serve":
		err = serve(args)
	case "req":
		err = req(args)
	case "repl":
		err = repl(args)
	case "help":
		fmt.Print(usage)
	default:
		log.Printf("unknown command: %s\n\n", cmd)
		fmt.Print(usage)
	}
	if err != nil {
		log.Fatalf("%s error: %+v\n", flag.Arg(0), err)
	}
}
