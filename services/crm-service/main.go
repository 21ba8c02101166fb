package main

import "github.com/stoik/simplecrm/services/crm-service/internal/app"

func main() {
	app.Execute()
}
