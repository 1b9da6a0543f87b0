// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/pvewarden/pkg/setup/postfix"
)

var (
	pfRelayHost    string
	pfRelayPort    int
	pfUsername     string
	pfPasswordFile string
	pfSendTest     bool
)

var setupPostfixCmd = &cobra.Command{
	Use:   "postfix",
	Short: "Configure Postfix to relay all mail through Exchange",
	Run: func(cmd *cobra.Command, args []string) {
		opts := mergeAlertOptionsWithEnv(alertOpts)
		config := postfix.PostfixConfig{
			RelayHost: getEnv("PVE_RELAY_HOST", pfRelayHost),
			RelayPort: getEnvInt("PVE_RELAY_PORT", pfRelayPort),
			Username:  getEnv("PVE_RELAY_USER", pfUsername),
			Password:  os.Getenv("PVE_RELAY_PASSWORD"),
			From:      opts.From,
			Hostname:  hostname(opts),
		}
		if config.Password == "" && pfPasswordFile != "" {
			data, err := os.ReadFile(pfPasswordFile)
			if err != nil {
				log.Fatal().Err(err).Msg("cannot read relay password file")
			}
			config.Password = strings.TrimSpace(string(data))
		}

		log.Info().
			Str("relay_host", config.RelayHost).
			Int("relay_port", config.RelayPort).
			Str("username", config.Username).
			Str("from", config.From).
			Bool("send_test", pfSendTest).
			Msg("configuration_loaded")

		if err := config.Validate(); err != nil {
			fmt.Printf("Warning: %v\n", err)
			fmt.Println("One or more required parameters are missing. Please provide them through flags or environment variables.")
			os.Exit(1)
		}
		if pfSendTest {
			validateAlertOptions(opts)
		}
		requireRoot()

		res, err := postfix.Setup(cmd.Context(), setupEnv(), config)
		if err != nil {
			log.Fatal().Err(err).Msg("postfix setup failed")
		}
		logSetupResult("postfix", res)

		if pfSendTest {
			if err := sendRelayTest(cmd.Context(), opts, config); err != nil {
				log.Fatal().Err(err).Msg("test mail through the relay failed")
			}
		}
	},
}

func sendRelayTest(ctx context.Context, o alertOptions, config postfix.PostfixConfig) error {
	o.Test = true
	d, cleanup, err := newDispatcher(o, newRunner(dryRun))
	if err != nil {
		return err
	}
	defer cleanup()

	ac := alertContext(o, "postfix")
	return d.Send(ctx, ac, "relay test", []string{
		fmt.Sprintf("mail from %s is relayed through [%s]:%d", ac.Hostname, config.RelayHost, config.RelayPort),
	})
}

func init() {
	setupPostfixCmd.Flags().StringVar(&pfRelayHost, "relay-host", "", "Exchange host accepting authenticated submission")
	setupPostfixCmd.Flags().IntVar(&pfRelayPort, "relay-port", postfix.DefaultRelayPort, "Submission port of the relay")
	setupPostfixCmd.Flags().StringVar(&pfUsername, "username", "", "Mailbox used to authenticate, empty relays without SASL")
	setupPostfixCmd.Flags().StringVar(&pfPasswordFile, "password-file", "", "File holding the mailbox password (or set PVE_RELAY_PASSWORD)")
	setupPostfixCmd.Flags().BoolVar(&pfSendTest, "send-test", false, "Mail a test message to --dest after configuring")
}
