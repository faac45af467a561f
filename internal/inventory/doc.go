// Package inventory resolves a host pattern against a static YAML inventory
// and collates the matching hosts by cloud provider and region.
//
// The inventory uses Ansible's YAML layout:
//
//	all:
//	  vars:
//	    cloud_provider: aws
//	  children:
//	    web:
//	      vars:
//	        cloud_region: eu-west-1
//	      hosts:
//	        web1:
//	          cloud_instance_id: i-0123456789abcdef0
//
// A host takes part in a run only when it defines cloud_provider,
// cloud_region and cloud_instance_id, directly or through its groups.
package inventory
