package main

import "charityops_backend/internal/app"

func main() {
	app.Run()
}
