// Command desk wires the identity, ledger and announcement services together
// behind an interactive console shell. The graphical frontend talks to the
// same registrar service; this shell exists for smoke-testing a deployment
// without it.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/zombieTDV/studentms/core"
	"github.com/zombieTDV/studentms/core/account"
	"github.com/zombieTDV/studentms/core/announce"
	"github.com/zombieTDV/studentms/core/ledger"
	"github.com/zombieTDV/studentms/core/registrar"
	emailsvc "github.com/zombieTDV/studentms/services/email"
	logsvc "github.com/zombieTDV/studentms/services/logger"
	"github.com/zombieTDV/studentms/storage/database/mongodb"
)

func main() {
	conf := core.LoadConfig()

	std := log.New(os.Stdout, "DESK : ", log.LstdFlags|log.Lshortfile)

	var logger core.Logger
	if conf.Debug {
		logger = core.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	// set up DB
	db, err := mongodb.Open(conf)
	errAndDie(std, err)
	defer db.Close()

	ctx := context.Background()
	errAndDie(std, mongodb.EnsureIndexes(ctx, db))

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	accSvc := account.NewService(mongodb.NewAccountRepository(db))
	ledgerSvc := ledger.NewService(mongodb.NewFeeRepository(db), mongodb.NewTransactionRepository(db))
	announceSvc := announce.NewService(mongodb.NewAnnouncementRepository(db))

	tokens := account.NewTokenStore(conf.TokenFile, conf.SecretKey, conf.SessionTTL)
	session := account.NewSessionManager(accSvc, tokens, mailSvc, logger)
	reg := registrar.NewService(accSvc, ledgerSvc, announceSvc, logger)

	shell(ctx, session, reg)
}

func shell(ctx context.Context, session *account.SessionManager, reg *registrar.Service) {
	// try resuming a persisted session first
	if res := session.Resume(ctx); res.Success {
		fmt.Printf("%s (resumed as %s)\n", res.Message, res.User.Base().Username)
	}

	in := bufio.NewScanner(os.Stdin)
	fmt.Println("commands: login USER | recover EMAIL | whoami | students | balance ID | logout | quit")

	for {
		fmt.Print("> ")
		if !in.Scan() {
			return
		}
		fields := strings.Fields(in.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "login":
			if len(fields) != 2 {
				fmt.Println("usage: login USER")
				continue
			}
			fmt.Print("password: ")
			pwd, err := term.ReadPassword(syscall.Stdin)
			fmt.Println()
			if err != nil {
				fmt.Println(err)
				continue
			}
			res := session.Login(ctx, fields[1], string(pwd))
			fmt.Println(res.Message)
		case "recover":
			if len(fields) != 2 {
				fmt.Println("usage: recover EMAIL")
				continue
			}
			res := session.RecoverPassword(ctx, fields[1])
			fmt.Println(res.Message)
			if res.Note != "" {
				fmt.Println(res.Note)
			}
		case "whoami":
			if p := session.Current(); p != nil {
				base := p.Base()
				fmt.Printf("%s (%s)\n", base.Username, base.Role)
			} else {
				fmt.Println("anonymous")
			}
		case "students":
			res := reg.Students(ctx, session.Current())
			if !res.Success {
				fmt.Println(res.Message)
				continue
			}
			for _, st := range res.Students {
				fmt.Printf("%s  %s  %s\n", st.ID, st.Username, st.FullName)
			}
		case "balance":
			if len(fields) != 2 {
				fmt.Println("usage: balance ID")
				continue
			}
			res := reg.Balance(ctx, session.Current(), fields[1])
			if !res.Success {
				fmt.Println(res.Message)
				continue
			}
			fmt.Printf("billed=%d paid=%d remaining=%d\n",
				res.Balance.TotalBilled, res.Balance.TotalPaid, res.Balance.TotalRemaining)
		case "logout":
			session.Logout()
			fmt.Println("logged out")
		case "quit", "exit":
			return
		default:
			fmt.Println("unknown command")
		}
	}
}

func errAndDie(std *log.Logger, err error) {
	if err != nil {
		std.Fatal(err)
	}
}
