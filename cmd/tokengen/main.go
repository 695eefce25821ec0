// Command tokengen mints an API bearer token for a user id using the
// server's secret and token validity settings.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/photovault/internal/flagx"
	"github.com/dmitrijs2005/photovault/internal/server/auth"
	"github.com/dmitrijs2005/photovault/internal/server/config"
	"github.com/google/uuid"
)

func main() {
	var userID, userName string

	fs := flag.NewFlagSet("tokengen", flag.ExitOnError)
	fs.StringVar(&userID, "user", "", "user uuid (random when empty)")
	fs.StringVar(&userName, "name", "", "user name stored in the token")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-user", "--user", "-name", "--name"}))

	cfg := config.LoadConfig()

	id := uuid.New()
	if userID != "" {
		var err error
		if id, err = uuid.Parse(userID); err != nil {
			log.Fatalf("bad user id: %v", err)
		}
	}

	token, err := auth.GenerateToken(id, userName, []byte(cfg.SecretKey), cfg.AccessTokenValidityDuration)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}

	fmt.Fprintf(os.Stderr, "user: %s\n", id)
	fmt.Println(token)
}
