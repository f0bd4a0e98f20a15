package main

import "taskboard/internal/app/server"

func main() {
	server.Run()
}
