package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mahdiidarabi/textbook-rsa/internal/logging"
	"github.com/mahdiidarabi/textbook-rsa/pkg/textbookrsa"
)

const envPrefix = "RSAPRIME"

// Global flag names, also used as viper keys.
const (
	flagConfig         = "config"
	flagLogLevel       = "log-level"
	flagLogFormat      = "log-format"
	flagSeed           = "seed"
	flagRounds         = "rounds"
	flagWorkers        = "workers"
	flagStrategy       = "strategy"
	flagMaxTrials      = "max-trials"
	flagExponent       = "exponent"
	flagMaxKeyAttempts = "max-key-attempts"
	flagPrintMetrics   = "print-metrics"
)

// Subcommand flag names. setup binds them to viper for the command being run.
const (
	flagBits       = "bits"
	flagOut        = "out"
	flagPublicOut  = "public-out"
	flagKey        = "key"
	flagMessage    = "message"
	flagCiphertext = "ciphertext"
)

// app carries the state shared by all subcommands of one invocation.
type app struct {
	v        *viper.Viper
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *textbookrsa.Metrics
}

func newRootCmd() *cobra.Command {
	a := &app{
		v:      viper.New(),
		logger: zap.NewNop(),
	}

	root := &cobra.Command{
		Use:                "rsaprime",
		Short:              "Probable primes and textbook RSA",
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	flags := root.PersistentFlags()
	addGlobalFlags(flags)

	if err := a.v.BindPFlags(flags); err != nil {
		panic(err)
	}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		a.primeCmd(),
		a.keygenCmd(),
		a.encryptCmd(),
		a.decryptCmd(),
		a.demoCmd(),
	)
	return root
}

// addGlobalFlags defines the flags shared by every subcommand.
func addGlobalFlags(flags *pflag.FlagSet) {
	flags.String(flagConfig, "", "Path to a YAML, JSON or TOML config file")
	flags.String(flagLogLevel, "info", "Log level (debug, info, warn, error)")
	flags.String(flagLogFormat, logging.FormatConsole, "Log format (console, json or logfmt)")
	flags.Int64(flagSeed, 0, "Master seed for reproducible searches (0 = crypto/rand)")
	flags.Int(flagRounds, textbookrsa.DefaultRounds, "Miller-Rabin rounds per candidate")
	flags.Int(flagWorkers, textbookrsa.DefaultWorkers, "Race workers (0 = number of CPUs)")
	flags.String(flagStrategy, "race", "Search strategy (race or sequential)")
	flags.Int64(flagMaxTrials, textbookrsa.DefaultMaxTrials, "Candidates drawn per search before giving up (0 = unbounded)")
	flags.Int64(flagExponent, textbookrsa.DefaultPublicExponent, "Public exponent")
	flags.Int(flagMaxKeyAttempts, textbookrsa.DefaultMaxKeyAttempts, "Prime pairs tried per key generation")
	flags.Bool(flagPrintMetrics, false, "Print Prometheus metrics after the command")
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := a.v.BindPFlags(cmd.LocalNonPersistentFlags()); err != nil {
		return errors.Wrapf(err, "failed to bind %s flags", cmd.Name())
	}

	if path := a.v.GetString(flagConfig); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	logger, err := logging.New(logging.Config{
		Level:  a.v.GetString(flagLogLevel),
		Format: a.v.GetString(flagLogFormat),
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.logger = logger.Named("rsaprime")

	a.registry = prometheus.NewRegistry()
	a.metrics = textbookrsa.NewMetrics(a.registry)
	return nil
}

func (a *app) teardown(cmd *cobra.Command, _ []string) error {
	defer a.logger.Sync() //nolint:errcheck

	if !a.v.GetBool(flagPrintMetrics) {
		return nil
	}

	families, err := a.registry.Gather()
	if err != nil {
		return errors.Wrap(err, "failed to gather metrics")
	}
	out := cmd.OutOrStdout()
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
			return errors.Wrap(err, "failed to write metrics")
		}
	}
	return nil
}

// strategy builds the configured search strategy.
func (a *app) strategy() (textbookrsa.SearchStrategy, error) {
	var factory textbookrsa.SourceFactory = textbookrsa.NewCryptoFactory()
	if seed := a.v.GetInt64(flagSeed); seed != 0 {
		factory = textbookrsa.NewSeededFactory(seed)
	}

	config := textbookrsa.DefaultSearchConfig()
	config.Rounds = a.v.GetInt(flagRounds)
	config.Workers = a.v.GetInt(flagWorkers)
	config.MaxTrials = a.v.GetInt64(flagMaxTrials)

	name := a.v.GetString(flagStrategy)
	switch strings.ToLower(name) {
	case "race":
		return textbookrsa.NewRaceStrategy(factory).
			WithConfig(config).
			WithLogger(a.logger).
			WithMetrics(a.metrics), nil
	case "sequential":
		return textbookrsa.NewSequentialStrategy(factory).
			WithConfig(config).
			WithLogger(a.logger).
			WithMetrics(a.metrics), nil
	default:
		return nil, errors.Errorf("unknown strategy %q (want race or sequential)", name)
	}
}

func (a *app) client() (*textbookrsa.Client, error) {
	strategy, err := a.strategy()
	if err != nil {
		return nil, err
	}
	return textbookrsa.NewClient().
		WithStrategy(strategy).
		WithExponent(a.v.GetInt64(flagExponent)).
		WithMaxKeyAttempts(a.v.GetInt(flagMaxKeyAttempts)).
		WithLogger(a.logger).
		WithMetrics(a.metrics), nil
}

func (a *app) primeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prime",
		Short: "Search one probable prime",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bits := a.v.GetInt(flagBits)

			client, err := a.client()
			if err != nil {
				return err
			}
			res, err := client.FindPrime(cmd.Context(), bits)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "prime: %s\n", res.Prime)
			fmt.Fprintf(out, "bits: %d\n", res.Prime.BitLen())
			fmt.Fprintf(out, "trials: %d\n", res.Trials)
			fmt.Fprintf(out, "worker: %d\n", res.Worker)
			fmt.Fprintf(out, "strategy: %s\n", res.Strategy)
			fmt.Fprintf(out, "elapsed: %s\n", res.Elapsed)
			return nil
		},
	}
	cmd.Flags().Int(flagBits, 1024, "Bit width of the prime")
	return cmd
}

func (a *app) keygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a key pair from two probable primes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bits := a.v.GetInt(flagBits)
			outPath := a.v.GetString(flagOut)
			pubPath := a.v.GetString(flagPublicOut)

			client, err := a.client()
			if err != nil {
				return err
			}
			km, err := client.GenerateKeyPair(cmd.Context(), bits)
			if err != nil {
				return err
			}
			pub, priv := km.Split()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "n: %s\n", pub.N)
			fmt.Fprintf(out, "modulus bits: %d\n", pub.N.BitLen())
			fmt.Fprintf(out, "e: %s\n", pub.E)

			if outPath == "" {
				fmt.Fprintf(out, "d: %s\n", priv.D)
			} else {
				if err := textbookrsa.WriteKeyFile(outPath, pub, priv); err != nil {
					return err
				}
				a.logger.Info("wrote key file", zap.String("path", outPath))
			}
			if pubPath != "" {
				if err := textbookrsa.WriteKeyFile(pubPath, pub, nil); err != nil {
					return err
				}
				a.logger.Info("wrote public key file", zap.String("path", pubPath))
			}
			return nil
		},
	}
	cmd.Flags().Int(flagBits, 256, "Bit width of each prime")
	cmd.Flags().String(flagOut, "", "Write the key pair to this file (.json, .yaml) instead of printing d")
	cmd.Flags().String(flagPublicOut, "", "Also write the public key to this file")
	return cmd
}

func (a *app) encryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt a message with a key file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keyPath := a.v.GetString(flagKey)
			message := a.v.GetString(flagMessage)

			kf, err := textbookrsa.ParserForPath(keyPath).ParseKey(keyPath)
			if err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			ct, err := client.EncryptMessage(message, kf.Public())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "message as integer: %s\n", ct.PlainInt)
			fmt.Fprintf(out, "ciphertext: %s\n", ct.Cipher)
			return nil
		},
	}
	cmd.Flags().String(flagKey, "", "Key file (JSON or YAML with n and e)")
	cmd.Flags().String(flagMessage, "", "Message to encrypt")
	_ = cmd.MarkFlagRequired(flagKey)
	return cmd
}

func (a *app) decryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt a ciphertext integer with a key file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keyPath := a.v.GetString(flagKey)
			raw := a.v.GetString(flagCiphertext)

			kf, err := textbookrsa.ParserForPath(keyPath).ParseKey(keyPath)
			if err != nil {
				return err
			}
			priv, err := kf.Private()
			if err != nil {
				return errors.WithMessage(err, keyPath)
			}
			c, err := textbookrsa.ParseBigInt(raw)
			if err != nil {
				return errors.WithMessage(err, "failed to parse ciphertext")
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			message, err := client.DecryptMessage(c, priv)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "message: %s\n", message)
			return nil
		},
	}
	cmd.Flags().String(flagKey, "", "Key file (JSON or YAML with n, e and d)")
	cmd.Flags().String(flagCiphertext, "", "Ciphertext integer (decimal or 0x hex)")
	_ = cmd.MarkFlagRequired(flagKey)
	_ = cmd.MarkFlagRequired(flagCiphertext)
	return cmd
}

func (a *app) demoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Generate a key, encrypt a message and decrypt it again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bits := a.v.GetInt(flagBits)
			message := a.v.GetString(flagMessage)

			client, err := a.client()
			if err != nil {
				return err
			}
			tr, err := client.RoundTrip(cmd.Context(), bits, message)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "p: %s\n", tr.P)
			fmt.Fprintf(out, "q: %s\n", tr.Q)
			fmt.Fprintf(out, "n = pq: %s\n", tr.Public.N)
			fmt.Fprintf(out, "message: %s\n", tr.Message)
			fmt.Fprintf(out, "message as integer: %s\n", tr.MessageInt)
			fmt.Fprintf(out, "encoded message: %s\n", strings.ToValidUTF8(string(tr.CipherText), "�"))
			fmt.Fprintf(out, "encoded message as integer: %s\n", tr.Cipher)
			fmt.Fprintf(out, "decoded message: %s\n", tr.Decoded)
			fmt.Fprintf(out, "decoded message as integer: %s\n", tr.DecodedInt)
			return nil
		},
	}
	cmd.Flags().Int(flagBits, 256, "Bit width of each prime")
	cmd.Flags().String(flagMessage, "Super secret message!!!", "Message to round-trip")
	return cmd
}
