package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a MedPal account",
	Run: func(cmd *cobra.Command, args []string) {
		scanner := bufio.NewScanner(os.Stdin)
		prompt := func(label string) string {
			fmt.Print(label + ": ")
			scanner.Scan()
			return strings.TrimSpace(scanner.Text())
		}

		req := map[string]string{
			"name":     prompt("Name"),
			"email":    prompt("Email"),
			"phone":    prompt("Phone"),
			"password": prompt("Password"),
		}
		body, _ := json.Marshal(req)

		resp, err := http.Post(apiURL()+"/auth/register", "application/json", bytes.NewBuffer(body))
		if err != nil {
			fmt.Printf("Error connecting to server: %v\n", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			var errResp struct {
				Error string `json:"error"`
			}
			json.NewDecoder(resp.Body).Decode(&errResp)
			if errResp.Error != "" {
				fmt.Printf("Registration failed: %s\n", errResp.Error)
			} else {
				fmt.Println("Registration failed.")
			}
			return
		}

		var regResp struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&regResp); err != nil {
			fmt.Printf("Error reading response: %v\n", err)
			return
		}

		viper.Set("token", regResp.Token)
		viper.Set("email", req["email"])
		if err := viper.WriteConfig(); err != nil {
			fmt.Printf("Warning: failed to save credentials: %v\n", err)
		}

		fmt.Println("Account created and logged in.")
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
}
