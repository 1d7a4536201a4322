package main

import "github.com/ChristopherCousin/Kcal/cmd/kcal"

func main() {
	kcal.Execute()
}
