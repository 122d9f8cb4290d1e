package main

import (
	"fmt"
	"log"
	"os"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("[s2sprep] ")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "collect":
		runCollect(os.Args[2:])
	case "batches":
		runBatches(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("s2sprep - data preparation for seq2seq training")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  s2sprep collect --files FILES --out FILE [options]")
	fmt.Println("  s2sprep batches --src FILE --eq FILE --topic FILE --src-vocab FILE [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  collect  Build a frequency-ranked vocabulary from token-per-line corpora")
	fmt.Println("  batches  Encode parallel corpora and report padded minibatch shapes")
	fmt.Println()
	fmt.Println("Both commands accept --config FILE (YAML); explicit flags override it.")
}
