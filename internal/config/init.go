package config

import (
	"fmt"
	"os"
)

const exampleConfig = `version: "1.0"

site:
  title: "Project Documentation"
  description: "Generated documentation site"
  base_url: "https://docs.example.com"

docs:
  dir: ./docs
  descriptor: index.rst
  target: html

output:
  dir: ./site

# sidebar:
#   github_slug: owner/repo   # default derived from the git origin remote

linkcheck:
  enabled: false
  timeout: 10s
  max_concurrent: 10
  follow_redirects: true
  max_redirects: 5

# history:
#   path: ./docnav-history.db

# events:
#   nats_url: nats://localhost:4222
#   subject: docnav.builds

daemon:
  port: 1316
  # rebuild_interval: 30m
  metrics:
    enabled: true
    path: /metrics
`

const exampleDescriptor = `.. only:: html

   .. include:: main.md

.. toctree::
   :hidden:

   Home <self>

.. toctree::
   :maxdepth: 2

   main

.. sidebar-links::
   :github:

   Issue Tracker <https://github.com/owner/repo/issues>
`

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// InitDescriptor writes an example navigation descriptor.
func InitDescriptor(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("descriptor already exists: %s (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(exampleDescriptor), 0o644); err != nil {
		return fmt.Errorf("write descriptor: %w", err)
	}
	return nil
}
