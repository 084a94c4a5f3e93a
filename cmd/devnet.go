package cmd

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/skyline-labs/bridgecore/internal/bridge"
	"github.com/skyline-labs/bridgecore/internal/clients"
	"github.com/skyline-labs/bridgecore/internal/ledger"
)

const (
	DefaultDevnetListenAddr = "127.0.0.1:8899"
	DefaultDevnetDecimals   = 9
)

// devnetCmd runs an in-memory bridge program instance behind a small JSON
// API, for exercising the five privileged instructions without a deployed
// validator-run cluster.
var devnetCmd = &cobra.Command{
	Use:   "devnet",
	Short: "Run an in-memory bridge program instance behind a local HTTP API",
	PreRun: func(cmd *cobra.Command, args []string) {
		printBanner()
		configureLogging(cmd, args)
	},
	RunE: runDevnet,
}

func init() {
	rootCmd.AddCommand(devnetCmd)

	devnetCmd.Flags().String(
		"listen-addr",
		DefaultDevnetListenAddr,
		"Address the devnet HTTP API listens on")

	devnetCmd.Flags().String(
		"program-id",
		"",
		"Program ID to bind the bridge core to (base58, random if empty)")

	devnetCmd.Flags().String(
		"payer",
		"",
		"Rent-paying keypair (base58 private key, random if empty)")

	viper.BindPFlag("listen_addr", devnetCmd.Flags().Lookup("listen-addr"))
	viper.BindPFlag("program_id", devnetCmd.Flags().Lookup("program-id"))
	viper.BindPFlag("payer", devnetCmd.Flags().Lookup("payer"))
}

type devnetServer struct {
	client *clients.BridgeClient
	logger *zap.Logger
}

func runDevnet(cmd *cobra.Command, args []string) error {
	logger := configureLogging(cmd, args)
	logger.Info("starting bridge devnet")

	listenAddr, _ := cmd.Flags().GetString("listen-addr")
	programIDStr, _ := cmd.Flags().GetString("program-id")
	payerStr, _ := cmd.Flags().GetString("payer")

	programID := solana.NewWallet().PublicKey()
	if programIDStr != "" {
		var err error
		programID, err = solana.PublicKeyFromBase58(programIDStr)
		if err != nil {
			return fmt.Errorf("invalid program id: %w", err)
		}
	}

	payerKey := solana.NewWallet().PrivateKey
	if payerStr != "" {
		var err error
		payerKey, err = solana.PrivateKeyFromBase58(payerStr)
		if err != nil {
			return fmt.Errorf("invalid payer key: %w", err)
		}
	}

	l := ledger.New()
	l.Fund(payerKey.PublicKey(), 1_000_000_000_000)

	client, err := clients.NewBridgeClient(logger, l, programID, payerKey.String())
	if err != nil {
		return fmt.Errorf("create bridge client: %w", err)
	}

	logger.Info("devnet bridge client ready",
		zap.String("programID", programID.String()),
		zap.String("payer", payerKey.PublicKey().String()))

	srv := &devnetServer{client: client, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/validators", srv.handleValidators)
	mux.HandleFunc("/validators/init", srv.handleInitialize)
	mux.HandleFunc("/validators/rotate", srv.handleRotate)
	mux.HandleFunc("/mints", srv.handleCreateMint)
	mux.HandleFunc("/fund", srv.handleFund)
	mux.HandleFunc("/bridge-tokens", srv.handleBridgeTokens)
	mux.HandleFunc("/bridge-requests", srv.handleBridgeRequest)
	mux.HandleFunc("/bridge-requests/close", srv.handleCloseRequest)

	httpServer := &http.Server{
		Addr:         listenAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		logger.Info("received shutdown signal")
		cancel()
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", listenAddr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("devnet server stopped with error: %w", err)
		}
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type coSignatureJSON struct {
	Signer    string `json:"signer"`
	Signature string `json:"signature"` // hex-encoded, 64 bytes
}

func decodeCoSigners(raw []coSignatureJSON) ([]bridge.CoSignature, error) {
	out := make([]bridge.CoSignature, len(raw))
	for i, r := range raw {
		pk, err := solana.PublicKeyFromBase58(r.Signer)
		if err != nil {
			return nil, fmt.Errorf("co-signer %d: invalid signer: %w", i, err)
		}
		sigBytes, err := hex.DecodeString(r.Signature)
		if err != nil || len(sigBytes) != 64 {
			return nil, fmt.Errorf("co-signer %d: signature must be 64 hex-encoded bytes", i)
		}
		var cs bridge.CoSignature
		cs.Signer = pk
		copy(cs.Signature[:], sigBytes)
		out[i] = cs
	}
	return out, nil
}

func (s *devnetServer) handleValidators(w http.ResponseWriter, r *http.Request) {
	vs, err := s.client.GetValidatorSet(r.Context())
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	signers := make([]string, len(vs.Signers))
	for i, sg := range vs.Signers {
		signers[i] = sg.String()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"signers":   signers,
		"threshold": vs.Threshold,
	})
}

func (s *devnetServer) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Validators []string `json:"validators"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	candidate := make([]solana.PublicKey, len(body.Validators))
	for i, v := range body.Validators {
		pk, err := solana.PublicKeyFromBase58(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("validator %d: %w", i, err))
			return
		}
		candidate[i] = pk
	}

	vs, err := s.client.Initialize(r.Context(), candidate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"threshold": vs.Threshold, "signers": len(vs.Signers)})
}

func (s *devnetServer) handleRotate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NewSigners []string          `json:"newSigners"`
		CoSigners  []coSignatureJSON `json:"coSigners"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	newSigners := make([]solana.PublicKey, len(body.NewSigners))
	for i, v := range body.NewSigners {
		pk, err := solana.PublicKeyFromBase58(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("new signer %d: %w", i, err))
			return
		}
		newSigners[i] = pk
	}

	cosigners, err := decodeCoSigners(body.CoSigners)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	vs, err := s.client.ValidatorSetChange(r.Context(), bridge.ValidatorSetChangeParams{
		NewSigners: newSigners,
		CoSigners:  cosigners,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"threshold": vs.Threshold, "signers": len(vs.Signers)})
}

// handleCreateMint is a devnet-only convenience for standing up a wrapped
// mint with the validator set PDA as its authority, the arrangement
// bridge_tokens assumes. Real mint creation is the token program's job, not
// one of the bridge core's five instructions.
func (s *devnetServer) handleCreateMint(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Decimals uint8 `json:"decimals"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.Decimals == 0 {
		body.Decimals = DefaultDevnetDecimals
	}

	vsAddr, _, err := s.client.ValidatorSetAddress()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	mint := solana.NewWallet().PublicKey()
	if err := s.client.Ledger().CreateMint(mint, vsAddr, body.Decimals); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mint": mint.String(), "authority": vsAddr.String()})
}

func (s *devnetServer) handleFund(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Address  string `json:"address"`
		Lamports uint64 `json:"lamports"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	addr, err := solana.PublicKeyFromBase58(body.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.client.Ledger().Fund(addr, body.Lamports)
	writeJSON(w, http.StatusOK, map[string]uint64{"balance": s.client.Ledger().Balance(addr)})
}

func (s *devnetServer) handleBridgeTokens(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mint      string            `json:"mint"`
		Recipient string            `json:"recipient"`
		Amount    uint64            `json:"amount"`
		CoSigners []coSignatureJSON `json:"coSigners"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	mint, err := solana.PublicKeyFromBase58(body.Mint)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid mint: %w", err))
		return
	}
	recipient, err := solana.PublicKeyFromBase58(body.Recipient)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid recipient: %w", err))
		return
	}
	cosigners, err := decodeCoSigners(body.CoSigners)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.client.BridgeTokens(r.Context(), bridge.BridgeTokensParams{
		Mint:      mint,
		Recipient: recipient,
		Amount:    body.Amount,
		CoSigners: cosigners,
	}); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "minted"})
}

func (s *devnetServer) handleBridgeRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Signer           string `json:"signer"`
		SignerATA        string `json:"signerATA"`
		Mint             string `json:"mint"`
		Amount           uint64 `json:"amount"`
		ReceiverHex      string `json:"receiverHex"`
		DestinationChain uint32 `json:"destinationChain"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	signer, err := solana.PublicKeyFromBase58(body.Signer)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid signer: %w", err))
		return
	}
	signerATA, err := solana.PublicKeyFromBase58(body.SignerATA)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid signer ATA: %w", err))
		return
	}
	mint, err := solana.PublicKeyFromBase58(body.Mint)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid mint: %w", err))
		return
	}
	receiver, err := hex.DecodeString(body.ReceiverHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid receiver hex: %w", err))
		return
	}

	br, err := s.client.BridgeRequest(r.Context(), bridge.BridgeRequestParams{
		Signer:           signer,
		SignerATA:        signerATA,
		Mint:             mint,
		Amount:           body.Amount,
		Receiver:         receiver,
		DestinationChain: body.DestinationChain,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sender":           br.Sender.String(),
		"amount":           br.Amount,
		"destinationChain": br.DestinationChain,
	})
}

func (s *devnetServer) handleCloseRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Sender    string            `json:"sender"`
		CoSigners []coSignatureJSON `json:"coSigners"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sender, err := solana.PublicKeyFromBase58(body.Sender)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid sender: %w", err))
		return
	}
	cosigners, err := decodeCoSigners(body.CoSigners)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.client.CloseRequest(r.Context(), bridge.CloseRequestParams{
		Sender:    sender,
		CoSigners: cosigners,
	}); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}
