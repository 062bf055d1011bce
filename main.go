package main

import "spot-booking-backend/cmd"

func main() {
	cmd.Execute()
}
