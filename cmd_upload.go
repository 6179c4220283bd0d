package main

import (
	"fmt"

	"touch_daily/internal/app"
	"touch_daily/internal/drive"

	"github.com/spf13/cobra"
)

func uploadCmd() *cobra.Command {
	var opts drive.UploadOptions
	var xlsx string
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload the workbook to Google Drive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireSetting(cfg.GoogleCreds, app.KeyGoogleCreds); err != nil {
				return err
			}
			if xlsx == "" {
				xlsx = cfg.WorkbookPath()
			}
			opts.FolderID = cfg.DriveFolderID

			client, err := drive.NewServiceAccountClient(cmd.Context(), cfg.GoogleCreds, cfg.Resilience.DriveUpload)
			if err != nil {
				return err
			}
			result, err := client.Upload(cmd.Context(), xlsx, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id: %s\n", result.ID)
			fmt.Fprintf(out, "webViewLink: %s\n", result.WebViewLink)
			fmt.Fprintf(out, "webContentLink: %s\n", result.WebContentLink)
			return nil
		},
	}
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "workbook to upload (default: <output-dir>/Daily_<date>.xlsx)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "name in Drive (default: the file's base name)")
	cmd.Flags().String("folder-id", "", "parent folder id (env GDRIVE_FOLDER_ID)")
	cmd.Flags().BoolVar(&opts.Replace, "replace", false, "update the file with the same name in the folder instead of creating a new one")
	bindFlag(cmd.Flags(), app.KeyDriveFolderID, "folder-id")
	return cmd
}
